package subtitle

import "github.com/mgpai22/lysync/internal/logging"

// tunables for the converters
type Options struct {
	// nearest-match window for LYS translations
	TranslationTolerance int
	// extra time given to the final line when nothing follows it
	FinalLineTail int
	// LRC line length when the next line is missing or too far away
	LRCDefaultDuration int
	LRCMaxGap          int
	// collapse "((" and "))" at background span edges
	NormalizeDoubleParens bool
	TranslationLang       string
	Logger                *logging.Logger
}

func DefaultOptions() Options {
	return Options{
		TranslationTolerance:  300,
		FinalLineTail:         10000,
		LRCDefaultDuration:    5000,
		LRCMaxGap:             30000,
		NormalizeDoubleParens: true,
		TranslationLang:       "zh-CN",
	}
}

func (o Options) logger() *logging.Logger {
	return logging.OrNop(o.Logger)
}

func (o Options) translationLang() string {
	if o.TranslationLang == "" {
		return "zh-CN"
	}
	return o.TranslationLang
}
