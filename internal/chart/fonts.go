package chart

import (
	"fmt"
	"sync"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"

	"budgeting/internal/fonts"
)

var (
	// fontMu guards the plot package font defaults. Drawing holds the read lock.
	fontMu     sync.RWMutex
	registered font.Typeface
)

// UseFonts makes set the default typeface for every chart drawn afterwards.
// Without it charts use the bundled Liberation fonts. Calls after the first
// successful one are no-ops for the same family.
func UseFonts(set fonts.Set) error {
	if set.IsZero() {
		return nil
	}
	typeface := font.Typeface(set.Family)

	fontMu.Lock()
	defer fontMu.Unlock()
	if registered == typeface {
		return nil
	}

	regular, err := opentype.Parse(set.Regular)
	if err != nil {
		return fmt.Errorf("parse %s regular: %w", set.Family, err)
	}
	coll := font.Collection{{Font: font.Font{Typeface: typeface}, Face: regular}}
	if len(set.Bold) > 0 {
		bold, err := opentype.Parse(set.Bold)
		if err != nil {
			return fmt.Errorf("parse %s bold: %w", set.Family, err)
		}
		coll = append(coll, font.Face{Font: font.Font{Typeface: typeface, Weight: xfont.WeightBold}, Face: bold})
	}

	font.DefaultCache.Add(coll)
	plot.DefaultFont = font.Font{Typeface: typeface}
	plotter.DefaultFont = font.Font{Typeface: typeface}
	registered = typeface
	return nil
}
