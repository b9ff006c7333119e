package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uokeyboard/internal/keyclass"
	"uokeyboard/internal/logging"
)

const stubRules = `name = "stub"

[[rule]]
find = "a"
replace = "X"

[[rule]]
find = "am"
replace = "Y"

[[rule]]
find = "ami"
replace = "Z"
`

type runResult struct {
	stdout string
	stderr string
}

// run executes the root command with an empty config directory.
func run(t *testing.T, stdin string, args ...string) (runResult, error) {
	t.Helper()
	return runApp(t, &app{}, stdin, args...)
}

func runApp(t *testing.T, a *app, stdin string, args ...string) (runResult, error) {
	t.Helper()
	t.Setenv("UOKBD_CONFIG_DIR", t.TempDir())
	t.Setenv("UOKBD_RULES", "")
	t.Setenv("UOKBD_LOG_LEVEL", "")
	if _, ok := os.LookupEnv("UOKBD_HISTORY_PATH"); !ok {
		t.Setenv("UOKBD_HISTORY_PATH", "")
	}

	root := newRootCmd(a)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return runResult{stdout: stdout.String(), stderr: stderr.String()}, err
}

func writeRules(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestVersion(t *testing.T) {
	res, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, res.stdout, "uokbd v"+Version)
}

func TestConvert(t *testing.T) {
	rules := writeRules(t, "stub.toml", stubRules)

	res, err := run(t, "", "--rules", rules, "convert", "am", "ami", "a")
	require.NoError(t, err)
	assert.Equal(t, "Y\nZ\nX\n", res.stdout)
}

func TestConvertNeedsText(t *testing.T) {
	_, err := run(t, "", "convert")
	assert.Error(t, err)
}

func TestConvertBadRules(t *testing.T) {
	rules := writeRules(t, "bad.toml", `name = "bad"`)
	_, err := run(t, "", "--rules", rules, "convert", "am")
	assert.Error(t, err)
}

func TestRulesCheck(t *testing.T) {
	good := writeRules(t, "stub.toml", stubRules)
	res, err := run(t, "", "rules", "check", good)
	require.NoError(t, err)
	assert.Contains(t, res.stdout, "ok (stub, 3 rules)")

	bad := writeRules(t, "bad.yaml", "name: bad\nrule:\n  - find: a\n    kind: vowel\n")
	_, err = run(t, "", "rules", "check", bad)
	assert.Error(t, err)

	_, err = run(t, "", "rules", "check", filepath.Join(t.TempDir(), "rules.txt"))
	assert.Error(t, err)
}

func TestRulesShow(t *testing.T) {
	res, err := run(t, "", "rules", "show")
	require.NoError(t, err)
	assert.Contains(t, res.stdout, `name = "bangla-phonetic"`)

	rules := writeRules(t, "stub.toml", stubRules)
	res, err = run(t, "", "--rules", rules, "rules", "show", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, res.stdout, `"find": "am"`)

	_, err = run(t, "", "rules", "show", "--format", "xml")
	assert.Error(t, err)
}

func TestSimulate(t *testing.T) {
	rules := writeRules(t, "stub.toml", stubRules)

	res, err := run(t, "", "--rules", rules, "simulate", "ami{space}")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], `"X"  composing "a"`)
	assert.Contains(t, lines[1], `"Y"  composing "am"`)
	assert.Contains(t, lines[2], `"Z"  composing "ami"`)
	assert.Contains(t, lines[3], `"Z "`)
	assert.Contains(t, lines[3], "passthrough Space")
	assert.NotContains(t, lines[3], "composing")
	assert.NotContains(t, lines[0], "passthrough")
	assert.Contains(t, lines[4], `(done)   "Z "`)
}

func TestSimulateBackspace(t *testing.T) {
	rules := writeRules(t, "stub.toml", stubRules)

	res, err := run(t, "", "--rules", rules, "simulate", "am{bs}")
	require.NoError(t, err)
	assert.Contains(t, res.stdout, `"X"  composing "a"`)

	// Outside a composition backspace is the application's.
	res, err = run(t, "", "--rules", rules, "simulate", "a{space}{bs}")
	require.NoError(t, err)
	assert.Contains(t, res.stdout, `(done)   "X"`)
}

func TestSimulateCommitsOnStop(t *testing.T) {
	rules := writeRules(t, "stub.toml", stubRules)

	res, err := run(t, "", "--rules", rules, "simulate", "am")
	require.NoError(t, err)
	assert.Contains(t, res.stdout, `(done)   "Y"`)
}

func TestSimulateCapsLock(t *testing.T) {
	rules := writeRules(t, "stub.toml", stubRules)

	res, err := run(t, "", "--rules", rules, "simulate", "{caps}b")
	require.NoError(t, err)
	assert.Contains(t, res.stdout, "caps=true")
	assert.Contains(t, res.stdout, `composing "B"`)
}

func TestSimulateReadsStdin(t *testing.T) {
	rules := writeRules(t, "stub.toml", stubRules)

	res, err := run(t, "am\n{space}\n", "--rules", rules, "simulate")
	require.NoError(t, err)
	assert.Contains(t, res.stdout, `(done)   "Y "`)
}

func TestSimulateUnknownKey(t *testing.T) {
	_, err := run(t, "", "simulate", "{nope}")
	assert.ErrorContains(t, err, "unknown key {nope}")
}

func TestHistoryRecordsSimulatedCommits(t *testing.T) {
	rules := writeRules(t, "stub.toml", stubRules)
	t.Setenv("UOKBD_HISTORY_PATH", filepath.Join(t.TempDir(), "history.db"))

	_, err := run(t, "", "--rules", rules, "simulate", "am{space}a{space}am{space}")
	require.NoError(t, err)

	res, err := run(t, "", "history", "--limit", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "OUTPUT")
	assert.Contains(t, lines[1], "Y")

	res, err = run(t, "", "history", "--top")
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"2", "Y", "am"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"1", "X", "a"}, strings.Fields(lines[2]))

	res, err = run(t, "", "history", "prune", "--older-than", "1h")
	require.NoError(t, err)
	assert.Contains(t, res.stdout, "removed 0 entries")
}

func TestBadConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[logging]\nlevel = \"loud\"\n"), 0o600))

	_, err := run(t, "", "--config", path, "version")
	assert.ErrorContains(t, err, "validation failed")
}

func TestVerboseLogsToStderr(t *testing.T) {
	rules := writeRules(t, "stub.toml", stubRules)

	res, err := run(t, "", "-v", "--rules", rules, "convert", "a")
	require.NoError(t, err)
	assert.Contains(t, res.stderr, "rules loaded")
}

func TestCrashCleanupFailureIsLogged(t *testing.T) {
	crash := logging.NewCrashHandler(&logging.CrashHandlerConfig{
		CrashDir:  filepath.Join(t.TempDir(), "[bad"),
		Component: "uokbd",
	})

	res, err := runApp(t, &app{crash: crash}, "", "-v", "version")
	require.NoError(t, err, "cleanup failures do not fail the command")
	assert.Contains(t, res.stderr, "crash report cleanup failed")

	res, err = runApp(t, &app{crash: crash}, "", "version")
	require.NoError(t, err)
	assert.NotContains(t, res.stderr, "crash report cleanup failed")
}

func TestLogsListsLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "uokbd.log")
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	cfg := "[logging]\noutput = \"file\"\nfile_path = " + strconv.Quote(logPath) + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	res, err := run(t, "", "--config", cfgPath, "logs")
	require.NoError(t, err)
	assert.Equal(t, logPath+"\n", res.stdout)
	assert.FileExists(t, logPath)
}

func TestLogsWithoutFile(t *testing.T) {
	res, err := run(t, "", "logs")
	require.NoError(t, err)
	assert.Equal(t, "logging to stderr\n", res.stdout)
}

func TestParseKeys(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []keyStroke
	}{
		{"letters", "ab", []keyStroke{
			{label: "a", code: keyclass.VKA},
			{label: "b", code: keyclass.VKA + 1},
		}},
		{"upper case holds shift", "A", []keyStroke{{label: "A", code: keyclass.VKA, shift: true}}},
		{"shift escape", "{shift}1", []keyStroke{{label: "1", code: '1', shift: true}}},
		{"shifted symbol", "!", []keyStroke{{label: "!", code: '1', shift: true}}},
		{"close paren", ")", []keyStroke{{label: ")", code: keyclass.VK0, shift: true}}},
		{"period", ".", []keyStroke{{label: ".", code: keyclass.VKPeriod}}},
		{"layout symbol", ",", []keyStroke{{label: ",", code: keyclass.VKOEMComma}}},
		{"literal space", " ", []keyStroke{{label: "{space}", code: keyclass.VKSpace}}},
		{"escapes", "{bs}{enter}{tab}", []keyStroke{
			{label: "{bs}", code: keyclass.VKBack},
			{label: "{enter}", code: keyclass.VKReturn},
			{label: "{tab}", code: keyclass.VKTab},
		}},
		{"numpad", "{np7}{np.}", []keyStroke{
			{label: "{np7}", code: keyclass.VKNumpad0 + 7},
			{label: "{np.}", code: keyclass.VKDecimal},
		}},
		{"caps", "{caps}", []keyStroke{{label: "{caps}", toggleCaps: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseKeys(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKeysErrors(t *testing.T) {
	for _, input := range []string{"{space", "{np}", "{f1}", "ñ"} {
		_, err := parseKeys(input)
		assert.Error(t, err, input)
	}
}
