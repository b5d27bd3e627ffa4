package cmd

import (
	"github.com/spf13/pflag"

	"github.com/bugVanisher/bkrcodec/internal/bkrerrs"
	"github.com/bugVanisher/bkrcodec/internal/format"
)

// modeFlags holds the three single-letter mode-selector flags shared by
// encode, decode and stats: -D density, -F sector format, -V video mode.
type modeFlags struct {
	density string
	sformat string
	video   string
}

func addModeFlags(fs *pflag.FlagSet) *modeFlags {
	mf := &modeFlags{density: "l", sformat: "s", video: "n"}
	fs.StringVarP(&mf.density, "density", "D", mf.density, "bit density: h(igh) or l(ow)")
	fs.StringVarP(&mf.sformat, "format", "F", mf.sformat, "sector format: s(tandard play) or e(xtended play)")
	fs.StringVarP(&mf.video, "video", "V", mf.video, "video raster: n(tsc) or p(al)")
	return mf
}

func (mf *modeFlags) resolve() (format.Mode, error) {
	var m format.Mode
	switch mf.density {
	case "h":
		m.Density = format.High
	case "l":
		m.Density = format.Low
	default:
		return m, bkrerrs.Newf(bkrerrs.CodeMalformedCodec, "cmd: unknown density %q", mf.density)
	}
	switch mf.sformat {
	case "s":
		m.Format = format.SP
	case "e":
		m.Format = format.EP
	default:
		return m, bkrerrs.Newf(bkrerrs.CodeMalformedCodec, "cmd: unknown sector format %q", mf.sformat)
	}
	switch mf.video {
	case "n":
		m.Video = format.NTSC
	case "p":
		m.Video = format.PAL
	default:
		return m, bkrerrs.Newf(bkrerrs.CodeMalformedCodec, "cmd: unknown video mode %q", mf.video)
	}
	return m, nil
}
