package filemanager

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/dittodrive/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// projectsFixture builds three root folders and readme.txt shared by
// Concerto and Resilience.
func projectsFixture(t *testing.T, config Config) *fixture {
	f := newFixture(t, config)
	f.folder("projects", "Projects", "")
	f.folder("concerto", "Concerto", "")
	f.folder("resilience", "Resilience", "")
	f.file("readme", "readme.txt", "read me", "concerto", "resilience")
	return f
}

func TestMoveFileReplacesOneParent(t *testing.T) {
	f := projectsFixture(t, Config{})

	status := f.join(f.manager.Move(f.ctx, alice, []metadata.Path{filePath("concerto", "readme")}, folderPath("projects")))

	assert.Empty(t, status.Error)
	assert.Equal(t, 1.0, status.Progress.Offset)
	assert.ElementsMatch(t, []metadata.Reference{ref("resilience"), ref("projects")}, f.getFile("readme").Parents)
	assert.Empty(t, f.getFolder("concerto").ChildFiles)
}

func TestMoveFileToSameParentIsNoop(t *testing.T) {
	f := projectsFixture(t, Config{})
	f.counter.reset()

	f.join(f.manager.Move(f.ctx, alice, []metadata.Path{filePath("concerto", "readme")}, folderPath("concerto")))

	saves, deletes := f.counter.calls()
	assert.Empty(t, saves)
	assert.Empty(t, deletes)
	assert.ElementsMatch(t, []metadata.Reference{ref("concerto"), ref("resilience")}, f.getFile("readme").Parents)
}

func TestMoveFileDenied(t *testing.T) {
	f := projectsFixture(t, Config{})
	f.deny("readme", "bob", metadata.RightView)

	status := f.join(f.manager.Move(f.ctx, bob, []metadata.Path{filePath("concerto", "readme")}, folderPath("projects")))

	assert.True(t, logContains(status, "You are not allowed to move the file [drive:readme]."))
	assert.ElementsMatch(t, []metadata.Reference{ref("concerto"), ref("resilience")}, f.getFile("readme").Parents)
}

func TestMoveFolderReparents(t *testing.T) {
	f := projectsFixture(t, Config{})
	f.folder("docs", "Docs", "concerto")

	f.join(f.manager.Move(f.ctx, alice, []metadata.Path{folderPath("docs")}, folderPath("projects")))

	assert.Equal(t, ref("projects"), f.getFolder("docs").Parent)
	assert.Equal(t, []metadata.Reference{ref("docs")}, f.getFolder("projects").ChildFolders)
}

func TestMoveFolderIntoItself(t *testing.T) {
	f := newFixture(t, Config{})
	f.folder("a", "A", "")
	f.folder("b", "B", "a")
	f.folder("c", "C", "b")

	for _, target := range []string{"a", "b", "c"} {
		status := f.join(f.manager.Move(f.ctx, alice, []metadata.Path{folderPath("a")}, folderPath(target)))
		assert.True(t, logContains(status, "Cannot move [drive:a] to a sub-folder of itself."), "target %s", target)
		assert.True(t, f.getFolder("a").IsRoot())
	}
	assert.Equal(t, ref("a"), f.getFolder("b").Parent)
}

func TestMoveFolderMerges(t *testing.T) {
	f := newFixture(t, Config{})
	f.folder("root", "Root", "")
	f.folder("target", "Target", "")
	f.folder("docs-a", "Docs", "root")
	f.folder("docs-b", "Docs", "target")
	f.folder("sub", "Sub", "docs-a")
	f.file("a", "a.txt", "a", "docs-a")

	status := f.join(f.manager.Move(f.ctx, alice, []metadata.Path{folderPath("docs-a")}, folderPath("target")))

	assert.Empty(t, status.Error)
	assert.False(t, f.exists("docs-a"))
	assert.Equal(t, ref("docs-b"), f.getFolder("sub").Parent)
	assert.Equal(t, []metadata.Reference{ref("docs-b")}, f.getFile("a").Parents)

	target := f.getFolder("target")
	assert.Equal(t, []metadata.Reference{ref("docs-b")}, target.ChildFolders)
	assert.Empty(t, f.getFolder("root").ChildFolders)
}

func TestMoveAcrossDrivesRejected(t *testing.T) {
	f := projectsFixture(t, Config{})
	_, err := f.fs.CreateFolder(f.ctx, metadata.NewReference("other", "dest"), "Dest", metadata.Reference{})
	require.NoError(t, err)

	destination := metadata.NewFolderPath(metadata.NewReference("other", "dest"))
	status := f.join(f.manager.Move(f.ctx, alice, []metadata.Path{folderPath("concerto")}, destination))

	assert.True(t, logContains(status, "Cannot move [drive:concerto] to another drive [other]."))
	assert.True(t, f.getFolder("concerto").IsRoot())
}

// collisionFixture has src/a.txt, src/b.txt and dst/a.txt, dst/b.txt.
func collisionFixture(t *testing.T, config Config) *fixture {
	f := newFixture(t, config)
	f.folder("src", "Source", "")
	f.folder("dst", "Destination", "")
	f.file("src-a", "a.txt", "new a", "src")
	f.file("src-b", "b.txt", "new b", "src")
	f.file("dst-a", "a.txt", "old a", "dst")
	f.file("dst-b", "b.txt", "old b", "dst")
	return f
}

func TestMoveCollisionAnswerRemembered(t *testing.T) {
	f := collisionFixture(t, Config{})
	events, cancel := f.manager.Events(64)
	defer cancel()

	paths := []metadata.Path{filePath("src", "src-a"), filePath("src", "src-b")}
	id, err := f.manager.Move(f.ctx, alice, paths, folderPath("dst"))
	require.NoError(t, err)

	question := f.waitForQuestion(id, ref("dst-a"))
	assert.Equal(t, ref("src-a"), question.Source)
	require.NoError(t, f.manager.Answer(id, OverwriteAnswer{Overwrite: true, AskAgain: false}))

	f.join(id, nil)
	assert.Equal(t, 1, questionsAsked(events))

	assert.False(t, f.exists("dst-a"))
	assert.False(t, f.exists("dst-b"))
	assert.ElementsMatch(t, []metadata.Reference{ref("src-a"), ref("src-b")}, f.getFolder("dst").ChildFiles)
	assert.Empty(t, f.getFolder("src").ChildFiles)
}

// mergeFixture has src/Inner and dst/Inner, both holding a.txt and b.txt.
func mergeFixture(t *testing.T) *fixture {
	f := newFixture(t, Config{})
	f.folder("src", "Source", "")
	f.folder("dst", "Destination", "")
	f.folder("in-src", "Inner", "src")
	f.folder("in-dst", "Inner", "dst")
	f.file("in-src-a", "a.txt", "new a", "in-src")
	f.file("in-src-b", "b.txt", "new b", "in-src")
	f.file("in-dst-a", "a.txt", "old a", "in-dst")
	f.file("in-dst-b", "b.txt", "old b", "in-dst")
	return f
}

func TestMoveFolderMergeAsksForInnerCollisions(t *testing.T) {
	f := mergeFixture(t)
	events, cancel := f.manager.Events(64)
	defer cancel()

	id, err := f.manager.Move(f.ctx, alice, []metadata.Path{folderPath("in-src")}, folderPath("dst"))
	require.NoError(t, err)

	question := f.waitForQuestion(id, ref("in-dst-a"))
	assert.Equal(t, ref("in-src-a"), question.Source)
	require.NoError(t, f.manager.Answer(id, OverwriteAnswer{Overwrite: true, AskAgain: false}))

	f.join(id, nil)
	assert.Equal(t, 1, questionsAsked(events))

	assert.False(t, f.exists("in-dst-a"))
	assert.False(t, f.exists("in-dst-b"))
	assert.ElementsMatch(t, []metadata.Reference{ref("in-src-a"), ref("in-src-b")}, f.getFolder("in-dst").ChildFiles)
	assert.Equal(t, []metadata.Reference{ref("in-dst")}, f.getFolder("dst").ChildFolders)
	assert.False(t, f.exists("in-src"))
	assert.Equal(t, "new a", f.content(ref("in-src-a")))
}

func TestMoveCollisionAskedEachTime(t *testing.T) {
	f := collisionFixture(t, Config{})

	paths := []metadata.Path{filePath("src", "src-a"), filePath("src", "src-b")}
	id, err := f.manager.Move(f.ctx, alice, paths, folderPath("dst"))
	require.NoError(t, err)

	f.waitForQuestion(id, ref("dst-a"))
	require.NoError(t, f.manager.Answer(id, OverwriteAnswer{Overwrite: false, AskAgain: true}))

	assert.Equal(t, ref("src-b"), f.waitForQuestion(id, ref("dst-b")).Source)
	require.NoError(t, f.manager.Answer(id, DefaultOverwriteAnswer()))

	f.join(id, nil)

	// a.txt kept the existing file, b.txt replaced it
	assert.True(t, f.exists("dst-a"))
	assert.Equal(t, []metadata.Reference{ref("src")}, f.getFile("src-a").Parents)
	assert.False(t, f.exists("dst-b"))
	assert.Equal(t, []metadata.Reference{ref("dst")}, f.getFile("src-b").Parents)
}

func TestMoveCollisionUnansweredKeepsExisting(t *testing.T) {
	f := collisionFixture(t, Config{QuestionTimeout: 20 * time.Millisecond})

	paths := []metadata.Path{filePath("src", "src-a"), filePath("src", "src-b")}
	status := f.join(f.manager.Move(f.ctx, alice, paths, folderPath("dst")))

	assert.Empty(t, status.Error)
	assert.True(t, logContains(status, "was not answered"))
	assert.True(t, f.exists("dst-a"))
	assert.True(t, f.exists("dst-b"))
	assert.Equal(t, []metadata.Reference{ref("src")}, f.getFile("src-a").Parents)
	assert.Equal(t, []metadata.Reference{ref("src")}, f.getFile("src-b").Parents)
}

func TestMoveCollisionNeedsRightsOnExistingFile(t *testing.T) {
	f := collisionFixture(t, Config{})
	f.deny("dst-a", "bob", metadata.RightView|metadata.RightEdit)

	status := f.join(f.manager.Move(f.ctx, bob, []metadata.Path{filePath("src", "src-a")}, folderPath("dst")))

	assert.Nil(t, status.Question)
	assert.True(t, f.exists("dst-a"))
	assert.Equal(t, []metadata.Reference{ref("src")}, f.getFile("src-a").Parents)
}

func TestNonInteractivePolicyNeverOverwrites(t *testing.T) {
	policy := overwritePolicy{interactive: false}
	assert.False(t, policy.shouldOverwrite(context.Background(), nil, ref("a"), ref("b")))
}

// ============================================================================
// Rename
// ============================================================================

func renameFixture(t *testing.T) *fixture {
	f := newFixture(t, Config{})
	f.folder("root", "Root", "")
	f.folder("old", "Old", "root")
	f.folder("sibling", "Sibling", "root")
	f.folder("child", "Child", "old")
	f.file("notes", "notes.txt", "notes", "old")
	f.file("x.txt", "x.txt", "x", "root")
	f.file("y.txt", "y.txt", "y", "root")
	return f
}

func TestRenameFolderCascadesToChildren(t *testing.T) {
	f := renameFixture(t)

	destination := metadata.NewFilePath(ref("root"), ref("New"))
	f.join(f.manager.Move(f.ctx, alice, []metadata.Path{folderPath("old")}, destination))

	assert.False(t, f.exists("old"))
	renamed := f.getFolder("New")
	assert.Equal(t, "New", renamed.Name)
	assert.Equal(t, ref("root"), renamed.Parent)
	assert.Equal(t, []metadata.Reference{ref("child")}, renamed.ChildFolders)
	assert.Equal(t, []metadata.Reference{ref("notes")}, renamed.ChildFiles)
	assert.Equal(t, []metadata.Reference{ref("New")}, f.getFile("notes").Parents)
}

func TestRenameFolderAndMove(t *testing.T) {
	f := renameFixture(t)

	destination := metadata.NewFilePath(ref("sibling"), ref("Moved"))
	f.join(f.manager.Move(f.ctx, alice, []metadata.Path{folderPath("old")}, destination))

	moved := f.getFolder("Moved")
	assert.Equal(t, ref("sibling"), moved.Parent)
	assert.Equal(t, ref("Moved"), f.getFolder("child").Parent)
}

func TestRenameFolderCollision(t *testing.T) {
	f := renameFixture(t)

	destination := metadata.NewFilePath(ref("root"), ref("Sibling"))
	status := f.join(f.manager.Move(f.ctx, alice, []metadata.Path{folderPath("old")}, destination))

	assert.True(t, logContains(status, "A folder with the same name [Sibling] already exists under [drive:root]."))
	assert.Equal(t, "Old", f.getFolder("old").Name)
}

func TestRenameFolderResolvesTakenReference(t *testing.T) {
	f := renameFixture(t)
	f.folder("elsewhere", "Elsewhere", "")
	f.folder("Taken", "Taken", "elsewhere")

	destination := metadata.NewFilePath(ref("root"), ref("Taken"))
	f.join(f.manager.Move(f.ctx, alice, []metadata.Path{folderPath("old")}, destination))

	renamed := f.getFolder("Taken1")
	assert.Equal(t, "Taken", renamed.Name)
	assert.Equal(t, ref("root"), renamed.Parent)
	assert.Equal(t, ref("elsewhere"), f.getFolder("Taken").Parent)
}

func TestRenameFolderIntoDescendant(t *testing.T) {
	f := renameFixture(t)

	destination := metadata.NewFilePath(ref("child"), ref("Inside"))
	status := f.join(f.manager.Move(f.ctx, alice, []metadata.Path{folderPath("old")}, destination))

	assert.True(t, logContains(status, "Cannot move [drive:old] to a sub-folder of itself."))
	assert.True(t, f.exists("old"))
}

func TestRenameFile(t *testing.T) {
	f := renameFixture(t)

	destination := metadata.NewFilePath(ref("root"), ref("z.txt"))
	f.join(f.manager.Move(f.ctx, alice, []metadata.Path{filePath("root", "x.txt")}, destination))

	assert.False(t, f.exists("x.txt"))
	renamed := f.getFile("z.txt")
	assert.Equal(t, "z.txt", renamed.Name)
	assert.Equal(t, []metadata.Reference{ref("root")}, renamed.Parents)
}

func TestRenameFileCollision(t *testing.T) {
	f := renameFixture(t)

	destination := metadata.NewFilePath(ref("root"), ref("y.txt"))
	status := f.join(f.manager.Move(f.ctx, alice, []metadata.Path{filePath("root", "x.txt")}, destination))

	assert.True(t, logContains(status, "A file with the same name [y.txt] already exists under [drive:root]."))
	assert.Nil(t, status.Question)
	assert.Equal(t, "x.txt", f.getFile("x.txt").Name)
	assert.Equal(t, "y.txt", f.getFile("y.txt").Name)
}

func TestRenameFileDenied(t *testing.T) {
	f := renameFixture(t)
	f.deny("x.txt", "bob", metadata.RightView)

	destination := metadata.NewFilePath(ref("root"), ref("z.txt"))
	status := f.join(f.manager.Move(f.ctx, bob, []metadata.Path{filePath("root", "x.txt")}, destination))

	assert.True(t, logContains(status, "You are not allowed to rename the file [drive:x.txt]."))
	assert.True(t, f.exists("x.txt"))
}

func TestRenameModeMoveFileCollision(t *testing.T) {
	f := renameFixture(t)
	f.folder("target", "Target", "root")
	f.file("doc-a", "doc.txt", "a", "sibling")
	f.file("doc-b", "doc.txt", "b", "target")

	// Same reference, new parent: the display name stays doc.txt
	destination := metadata.NewFilePath(ref("target"), ref("doc-a"))
	status := f.join(f.manager.Move(f.ctx, alice, []metadata.Path{filePath("sibling", "doc-a")}, destination))

	assert.True(t, logContains(status, "A file with the same name [doc.txt] already exists under [drive:target]."))
	assert.Equal(t, []metadata.Reference{ref("sibling")}, f.getFile("doc-a").Parents)
	assert.Equal(t, []metadata.Reference{ref("doc-b")}, f.getFolder("target").ChildFiles)
}

func TestRenameModeMoveFolderCollision(t *testing.T) {
	f := renameFixture(t)
	f.folder("target", "Target", "root")
	f.folder("docs-a", "Docs", "sibling")
	f.folder("docs-b", "Docs", "target")

	// The reference differs from the display name of the sibling
	destination := metadata.NewFilePath(ref("target"), ref("docs-a"))
	status := f.join(f.manager.Move(f.ctx, alice, []metadata.Path{folderPath("docs-a")}, destination))

	assert.True(t, logContains(status, "A folder with the same name [Docs] already exists under [drive:target]."))
	assert.Equal(t, ref("sibling"), f.getFolder("docs-a").Parent)
	assert.Equal(t, []metadata.Reference{ref("docs-b")}, f.getFolder("target").ChildFolders)
}

func TestMoveUnsupportedShapeIsNoop(t *testing.T) {
	f := renameFixture(t)
	f.counter.reset()

	// Two paths with a named destination: neither bulk nor rename
	paths := []metadata.Path{filePath("root", "x.txt"), filePath("root", "y.txt")}
	f.join(f.manager.Move(f.ctx, alice, paths, metadata.NewFilePath(ref("sibling"), ref("z.txt"))))

	saves, deletes := f.counter.calls()
	assert.Empty(t, saves)
	assert.Empty(t, deletes)
}
