package main_test

import (
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/expect"
	"github.com/containerd/nerdctl/mod/tigron/test"

	"github.com/farcloser/agar/pkg/agar"

	"github.com/farcloser/boostbench/internal/testutils"
)

func TestMeasureCLI(t *testing.T) {
	testCase := testutils.Setup()

	testCase.SubTests = []*test.Case{
		{
			Description: "measure without arguments fails",
			Command:     test.Command("measure"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "measure nonexistent files fails",
			Command:     test.Command("measure", "/nonexistent/clean.wav", "/nonexistent/processed.wav"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "measure with an unknown check fails",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.Genuine16bit44k(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				file := data.Labels().Get("file")

				return helpers.Command("measure", "--checks", "hum", file, file)
			},
			Expected: test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "identical files are transparent",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.Genuine16bit44k(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				file := data.Labels().Get("file")

				return helpers.Command(
					"measure",
					"--meter", "internal",
					"--checks", "latency,intelligibility",
					"--debug",
					file, file,
				)
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output: expect.All(
						expectContains("check: latency"),
						expectNoIssue("latency"),
						expectNoIssue("intelligibility"),
						expectWorstSeverity("no issue"),
					),
				}
			},
		},
		{
			Description: "hard clipped audio is flagged",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.ClippedHard(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				file := data.Labels().Get("file")

				return helpers.Command("measure", "--meter", "internal", "--checks", "clipping", "--debug", file, file)
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output:   expectIssueDetected("clipping"),
				}
			},
		},
		{
			Description: "friendly output lists the metrics",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.Genuine16bit44k(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				file := data.Labels().Get("file")

				return helpers.Command("measure", "--meter", "internal", file, file)
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output: expect.All(
						expectContains("stoi"),
						expectContains("latency"),
						expectContains("true_peak"),
					),
				}
			},
		},
	}

	testCase.Run(t)
}

func TestCompareCLI(t *testing.T) {
	testCase := testutils.Setup()

	testCase.SubTests = []*test.Case{
		{
			Description: "compare without a clean reference fails",
			Command:     test.Command("compare", "--a", "/nonexistent/a.wav"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "compare rejects a malformed candidate",
			Command:     test.Command("compare", "--clean", "/nonexistent/clean.wav", "--candidate", "nolabel"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "compare reports both labels against the target",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("clean", agar.Genuine16bit44k(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				clean := data.Labels().Get("clean")

				return helpers.Command(
					"compare",
					"--meter", "internal",
					"--clean", clean,
					"--a", clean,
					"--b", clean,
					"--label-a", "baseline",
					"--label-b", "candidate",
				)
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output: expect.All(
						expectContains("target_lufs"),
						expectContains("baseline"),
						expectContains("candidate"),
						expectContains("lufs_error"),
					),
				}
			},
		},
		{
			Description: "compare rejects duplicate labels",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("clean", agar.Genuine16bit44k(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				clean := data.Labels().Get("clean")

				return helpers.Command("compare", "--meter", "internal", "--clean", clean, "--a", clean, "--b", clean,
					"--label-b", "A")
			},
			Expected: test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
	}

	testCase.Run(t)
}
