package ffmpeg

import (
	"context"
	"io"
	"strconv"

	"github.com/farcloser/boostbench/internal/types"
)

// ExtractStream decodes an audio stream from a container read on input, writing interleaved PCM to output
// at format.BitDepth. Sample rate and channel layout are left untouched.
func ExtractStream(
	ctx context.Context,
	input io.Reader,
	output io.Writer,
	streamIndex int,
	format *types.PCMFormat,
) error {
	spec := bitDepthToSpec(format.BitDepth)

	_, err := run(ctx, "ExtractStream", input, output,
		"-i", "-",
		"-map", "0:a:"+strconv.Itoa(streamIndex),
		"-f", spec,
		"-acodec", "pcm_"+spec,
		"-v", "quiet",
		"-",
	)

	return err
}
