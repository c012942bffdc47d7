package build

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCheckStageTypeChecksCleanProgram(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Stage: StageCheck, CacheDir: dir, LockPath: dir + "/haira.lock"}
	sources := []Source{{
		Path: "main.haira",
		Code: "func add(a: int, b: int) -> int { return a + b }",
	}}

	res, err := Run(context.Background(), cfg, sources)
	require.NoError(t, err)
	require.Empty(t, res.Diagnostics)
	require.Len(t, res.Artifacts.Files, 1)
	require.Equal(t, 0, res.ExitCode())
}

func TestRunCheckStageReportsTypeMismatch(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Stage: StageCheck, CacheDir: dir, LockPath: dir + "/haira.lock"}
	sources := []Source{{
		Path: "main.haira",
		Code: `func bad(a: int) -> int { return "nope" }`,
	}}

	res, err := Run(context.Background(), cfg, sources)
	require.NoError(t, err)
	require.NotEmpty(t, res.Diagnostics)
	require.Equal(t, 1, res.ExitCode())
}

func TestRunCompilesStraightLineFunctionThroughCodegen(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Stage: StageCompile, CacheDir: dir, LockPath: dir + "/haira.lock"}
	sources := []Source{{
		Path: "main.haira",
		Code: "func add(a: int, b: int) -> int { return a + b }",
	}}

	res, err := Run(context.Background(), cfg, sources)
	require.NoError(t, err)
	require.Empty(t, res.Diagnostics)
	require.Contains(t, res.Artifacts.MIR, "add")
	require.NotEmpty(t, res.Artifacts.Object)
}

func TestRunParsesMultipleFilesConcurrently(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Stage: StageCheck, CacheDir: dir, LockPath: dir + "/haira.lock"}
	var sources []Source
	for i := 0; i < 8; i++ {
		sources = append(sources, Source{
			Path: "file" + string(rune('a'+i)) + ".haira",
			Code: "func f(a: int) -> int { return a }",
		})
	}

	res, err := Run(context.Background(), cfg, sources)
	require.NoError(t, err)
	require.Len(t, res.Artifacts.Files, 8)
}
