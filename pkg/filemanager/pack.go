package filemanager

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/marmos91/dittodrive/pkg/job"
	"github.com/marmos91/dittodrive/pkg/metadata"
)

// Pack job status attributes.
const (
	// AttributeBytesWritten is the archive size after the last packed file.
	AttributeBytesWritten = "bytes_written"

	// AttributeOutputFileSize is the final archive size.
	AttributeOutputFileSize = "output_file_size"

	// AttributeOutputFile is the local path of the archive.
	AttributeOutputFile = "output_file"
)

// PackArchiveDir is the directory, under the temporary directory, holding
// the pack archives.
const PackArchiveDir = "filemanager"

// PackArchivePath returns where the archive of output is written.
func PackArchivePath(tempDir string, output PackOutput) string {
	return filepath.Join(tempDir, PackArchiveDir,
		url.PathEscape(output.Document.Drive),
		url.PathEscape(output.Document.Name),
		url.PathEscape(output.FileName))
}

// countingWriter counts the bytes written through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// packer writes one archive.
type packer struct {
	*walker
	zip     *zip.Writer
	written *countingWriter
}

// runPack executes a PackRequest. Failing to create the archive is the only
// fatal error; unreadable or denied entities are skipped.
func (m *Manager) runPack(ctx context.Context, j *job.Job) (err error) {
	request := j.Request().(*PackRequest)
	w := newWalker(ctx, j, m.fs, m.generator, &request.BatchRequest)

	archivePath := PackArchivePath(m.config.TempDir, request.Output)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return fmt.Errorf("failed to create the archive directory: %w", err)
	}
	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create the archive: %w", err)
	}
	j.SetAttribute(AttributeOutputFile, archivePath)

	p := &packer{walker: w, written: &countingWriter{w: out}}
	p.zip = zip.NewWriter(p.written)

	defer func() {
		if closeErr := p.zip.Close(); closeErr != nil {
			w.log().Warn("Failed to finish the archive [%s]: %v", archivePath, closeErr)
		}
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close the archive: %w", closeErr)
		}
		if info, statErr := os.Stat(archivePath); statErr == nil {
			j.SetAttribute(AttributeOutputFileSize, info.Size())
		}
	}()

	j.PushLevel(len(request.Paths))
	defer j.PopLevel()

	for _, path := range request.Paths {
		if w.interrupted() {
			return ctx.Err()
		}
		if path.HasFile() {
			p.packFile(path.File, "")
		} else if path.HasFolder() {
			p.packFolder(path.Folder, "")
		}
		j.Step()
	}
	return nil
}

func (p *packer) packFile(ref metadata.Reference, prefix string) {
	file := p.file(ref)
	if file == nil {
		return
	}
	if !p.fs.CanView(p.auth, ref) {
		p.log().Info("Skipping the file [%s]: not allowed to view it.", ref)
		return
	}

	name := prefix + file.Name
	p.log().Info("Packing file [%s].", name)

	// No entry for a file whose content cannot be opened
	content, err := p.fs.GetContent(p.ctx, ref)
	if err != nil {
		p.log().Warn("Failed to read the file [%s]: %v", ref, err)
		return
	}
	defer func() { _ = content.Close() }()

	entry, err := p.zip.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		p.log().Warn("Failed to add the file [%s] to the archive: %v", name, err)
		return
	}

	if _, err := io.Copy(entry, content); err != nil {
		p.log().Warn("Failed to pack the file [%s]: %v", name, err)
	}

	if err := p.zip.Flush(); err != nil {
		p.log().Warn("Failed to flush the archive: %v", err)
	}
	p.job.SetAttribute(AttributeBytesWritten, p.written.n)
}

func (p *packer) packFolder(ref metadata.Reference, prefix string) {
	folder := p.folder(ref)
	if folder == nil {
		return
	}
	if !p.fs.CanView(p.auth, ref) {
		p.log().Info("Skipping the folder [%s]: not allowed to view it.", ref)
		return
	}

	p.job.PushLevel(len(folder.ChildFolders) + len(folder.ChildFiles) + 1)
	defer p.job.PopLevel()

	path := prefix + folder.Name + "/"
	if _, err := p.zip.CreateHeader(&zip.FileHeader{
		Name:     path,
		Method:   zip.Store,
		Modified: time.Now(),
	}); err != nil {
		p.log().Warn("Failed to add the folder [%s] to the archive: %v", path, err)
		return
	}
	p.job.Step()

	for _, child := range folder.ChildFolders {
		p.packFolder(child, path)
		p.job.Step()
	}
	for _, child := range folder.ChildFiles {
		p.packFile(child, path)
		p.job.Step()
	}
}
