package main_test

import (
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/expect"
	"github.com/containerd/nerdctl/mod/tigron/test"

	"github.com/farcloser/agar/pkg/agar"

	"github.com/farcloser/boostbench/internal/testutils"
)

func TestProcessCLI(t *testing.T) {
	testCase := testutils.Setup()

	testCase.SubTests = []*test.Case{
		{
			Description: "process without arguments fails",
			Command:     test.Command("process"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "process with an unknown processor fails",
			Command:     test.Command("process", "--processor", "onnx", "/nonexistent/in.wav", "/nonexistent/out.wav"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "autogain processor reports its timing",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.LowLoudnessQuiet(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command(
					"process",
					"--processor", "autogain",
					data.Labels().Get("file"),
					data.Temp().Path("processed.wav"),
				)
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output: expect.All(
						expectContains("autogain"),
						expectContains("processing_time_sec"),
					),
				}
			},
		},
	}

	testCase.Run(t)
}

func TestSimulateCLI(t *testing.T) {
	testCase := testutils.Setup()

	testCase.SubTests = []*test.Case{
		{
			Description: "simulate without arguments fails",
			Command:     test.Command("simulate"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "simulate summarizes the control loop",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.Genuine16bit44k(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("simulate", data.Labels().Get("file"))
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output: expect.All(
						expectContains("hop_count"),
						expectContains("max_gain"),
					),
				}
			},
		},
		{
			Description: "simulate with debug lists every hop",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.SilenceLongIntro(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("simulate", "--debug", data.Labels().Get("file"))
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output: expect.All(
						expectContains("increase-frozen"),
						expectContains("rms_db"),
					),
				}
			},
		},
	}

	testCase.Run(t)
}
