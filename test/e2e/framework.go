//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/config"
	"github.com/marmos91/dittodrive/pkg/job"
	"github.com/marmos91/dittodrive/pkg/metadata"
)

// Drive is the drive every e2e entity lives in
const Drive = "e2e"

// jobTimeout bounds every wait on a job
const jobTimeout = 30 * time.Second

// TestContext provides a complete testing environment with:
// - A runtime wired from a store combination
// - Helpers to seed the tree and run jobs
// - Cleanup mechanisms
type TestContext struct {
	T       *testing.T
	Config  *TestConfig
	Cfg     *config.Config
	Runtime *config.Runtime
	Admin   *metadata.Identity
	ctx     context.Context
}

// NewTestContext creates a runtime for the specified configuration.
func NewTestContext(t *testing.T, tc *TestConfig) *TestContext {
	t.Helper()

	// Always use ERROR level to keep test output clean
	logger.SetLevel("ERROR")

	cfg := tc.Build(t)
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := config.NewRuntime(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}

	return &TestContext{
		T:       t,
		Config:  tc,
		Cfg:     cfg,
		Runtime: rt,
		Admin:   &metadata.Identity{Username: "admin", Admin: true},
		ctx:     ctx,
	}
}

// Cleanup closes the runtime
func (tc *TestContext) Cleanup() {
	if err := tc.Runtime.Close(); err != nil {
		tc.T.Errorf("Failed to close runtime: %v", err)
	}
}

// Context returns the context of the test
func (tc *TestContext) Context() context.Context {
	return tc.ctx
}

// Ref returns a reference in the e2e drive
func (tc *TestContext) Ref(name string) metadata.Reference {
	return metadata.NewReference(Drive, name)
}

// Folder creates a folder; an empty parent creates a drive root
func (tc *TestContext) Folder(name, title, parent string) {
	tc.T.Helper()

	var parentRef metadata.Reference
	if parent != "" {
		parentRef = tc.Ref(parent)
	}
	if _, err := tc.Runtime.FileSystem.CreateFolder(tc.ctx, tc.Ref(name), title, parentRef); err != nil {
		tc.T.Fatalf("Failed to create folder %s: %v", name, err)
	}
}

// File creates a file under one or more parents
func (tc *TestContext) File(name, title, content string, parents ...string) {
	tc.T.Helper()

	refs := make([]metadata.Reference, 0, len(parents))
	for _, p := range parents {
		refs = append(refs, tc.Ref(p))
	}
	if _, err := tc.Runtime.FileSystem.CreateFile(tc.ctx, tc.Ref(name), title, refs, strings.NewReader(content)); err != nil {
		tc.T.Fatalf("Failed to create file %s: %v", name, err)
	}
}

// GetFolder reads a folder and fails the test when it is missing
func (tc *TestContext) GetFolder(ref metadata.Reference) *metadata.Folder {
	tc.T.Helper()

	folder, err := tc.Runtime.FileSystem.GetFolder(tc.ctx, ref)
	if err != nil {
		tc.T.Fatalf("Failed to get folder %s: %v", ref, err)
	}
	return folder
}

// GetFile reads a file and fails the test when it is missing
func (tc *TestContext) GetFile(ref metadata.Reference) *metadata.File {
	tc.T.Helper()

	file, err := tc.Runtime.FileSystem.GetFile(tc.ctx, ref)
	if err != nil {
		tc.T.Fatalf("Failed to get file %s: %v", ref, err)
	}
	return file
}

// Exists reports whether an entity exists
func (tc *TestContext) Exists(ref metadata.Reference) bool {
	tc.T.Helper()

	exists, err := tc.Runtime.FileSystem.Exists(tc.ctx, ref)
	if err != nil {
		tc.T.Fatalf("Failed to check %s: %v", ref, err)
	}
	return exists
}

// Content reads the content of a file
func (tc *TestContext) Content(ref metadata.Reference) string {
	tc.T.Helper()

	rc, err := tc.Runtime.FileSystem.GetContent(tc.ctx, ref)
	if err != nil {
		tc.T.Fatalf("Failed to open content of %s: %v", ref, err)
	}
	defer func() { _ = rc.Close() }()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		tc.T.Fatalf("Failed to read content of %s: %v", ref, err)
	}
	return buf.String()
}

// Join waits for a submitted job and returns its final status
func (tc *TestContext) Join(id string, err error) job.Snapshot {
	tc.T.Helper()

	if err != nil {
		tc.T.Fatalf("Failed to submit job: %v", err)
	}

	ctx, cancel := context.WithTimeout(tc.ctx, jobTimeout)
	defer cancel()

	if err := tc.Runtime.Manager.Join(ctx, id); err != nil {
		tc.T.Fatalf("Failed to join job %s: %v", id, err)
	}

	status, err := tc.Runtime.Manager.GetJobStatus(id)
	if err != nil {
		tc.T.Fatalf("Failed to get status of job %s: %v", id, err)
	}
	return status
}
