package format

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/calvinalkan/tabedit/internal/tab"
)

// YAML mirror of the document tree. Holes are null list entries so a dump
// keeps every position.
type (
	yamlSong struct {
		Version    string       `yaml:"version"`
		Name       string       `yaml:"name,omitempty"`
		Tuning     string       `yaml:"tuning"`
		Annotation string       `yaml:"annotation,omitempty"`
		Tracks     []*yamlTrack `yaml:"tracks"`
	}

	yamlTrack struct {
		Name     string         `yaml:"name,omitempty"`
		Measures []*yamlMeasure `yaml:"measures"`
	}

	yamlMeasure struct {
		Annotation string      `yaml:"annotation,omitempty"`
		PageBreak  bool        `yaml:"page_break,omitempty"`
		Repeat     bool        `yaml:"repeat,omitempty"`
		Beats      []*yamlBeat `yaml:"beats"`
	}

	yamlBeat struct {
		Annotation string     `yaml:"annotation,omitempty"`
		Notes      []yamlNote `yaml:"notes,omitempty,flow"`
	}

	yamlNote struct {
		String       int    `yaml:"s"`
		Fret         int    `yaml:"f"`
		Articulation string `yaml:"a,omitempty"`
	}
)

// MarshalYAML dumps song as YAML, holes included.
func MarshalYAML(song *tab.Song) ([]byte, error) {
	doc := yamlSong{
		Version:    Version,
		Name:       song.Name,
		Tuning:     song.TuningInfo().Name,
		Annotation: song.Annotation,
	}

	for t := 1; t <= song.TrackCount(); t++ {
		doc.Tracks = append(doc.Tracks, toYAMLTrack(song.Track(t)))
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}

	return out, nil
}

func toYAMLTrack(track *tab.Track) *yamlTrack {
	if track == nil {
		return nil
	}

	yt := &yamlTrack{Name: track.Name, Measures: []*yamlMeasure{}}

	for m := 1; m <= track.MeasureCount(); m++ {
		measure := track.Measure(m)
		if measure == nil {
			yt.Measures = append(yt.Measures, nil)

			continue
		}

		ym := &yamlMeasure{
			Annotation: measure.Annotation,
			PageBreak:  measure.PageBreak,
			Repeat:     measure.Repeat,
			Beats:      []*yamlBeat{},
		}

		for b := 1; b <= measure.BeatCount(); b++ {
			ym.Beats = append(ym.Beats, toYAMLBeat(measure.Beat(b)))
		}

		yt.Measures = append(yt.Measures, ym)
	}

	return yt
}

func toYAMLBeat(beat *tab.Beat) *yamlBeat {
	if beat == nil {
		return nil
	}

	yb := &yamlBeat{Annotation: beat.Annotation}

	for _, n := range beat.Notes() {
		yn := yamlNote{String: n.String, Fret: n.Fret}
		if n.Articulation != tab.Normal {
			yn.Articulation = n.Articulation.String()
		}

		yb.Notes = append(yb.Notes, yn)
	}

	return yb
}

// UnmarshalYAML reads a dump produced by [MarshalYAML]. Unparseable YAML and
// values outside the document limits wrap [ErrCorrupt]. The result is
// normalized, so hand-written dumps may leave out trailing beats.
func UnmarshalYAML(data []byte) (*tab.Song, error) {
	var doc yamlSong

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	if doc.Version != Version {
		return nil, fmt.Errorf("%w: %w: %q", ErrCorrupt, ErrVersion, doc.Version)
	}

	song, err := fromYAML(&doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	song.Normalize()

	return song, nil
}

func fromYAML(doc *yamlSong) (*tab.Song, error) {
	song := &tab.Song{Name: doc.Name, Annotation: doc.Annotation}

	if doc.Tuning != "" {
		idx, err := tab.LookupTuning(doc.Tuning)
		if err != nil {
			return nil, err
		}

		song.Tuning = idx
	}

	for t, yt := range doc.Tracks {
		if yt == nil {
			continue
		}

		track, err := song.EnsureTrack(t + 1)
		if err != nil {
			return nil, err
		}

		track.Name = yt.Name

		for m, ym := range yt.Measures {
			if ym == nil {
				continue
			}

			err := fromYAMLMeasure(track, m+1, ym)
			if err != nil {
				return nil, fmt.Errorf("track %d: %w", t+1, err)
			}
		}
	}

	return song, nil
}

func fromYAMLMeasure(track *tab.Track, m int, ym *yamlMeasure) error {
	measure, err := track.EnsureMeasure(m)
	if err != nil {
		return err
	}

	measure.Annotation = ym.Annotation
	measure.PageBreak = ym.PageBreak
	measure.Repeat = ym.Repeat

	for b, yb := range ym.Beats {
		if yb == nil {
			continue
		}

		beat, err := measure.EnsureBeat(b + 1)
		if err != nil {
			return fmt.Errorf("measure %d: %w", m, err)
		}

		beat.Annotation = yb.Annotation

		for _, yn := range yb.Notes {
			art, err := tab.ParseArticulation(yn.Articulation)
			if err != nil {
				return fmt.Errorf("measure %d beat %d: %w", m, b+1, err)
			}

			err = beat.SetNote(tab.Note{String: yn.String, Fret: yn.Fret, Articulation: art})
			if err != nil {
				return fmt.Errorf("measure %d beat %d: %w", m, b+1, err)
			}
		}
	}

	// A trailing null still counts as a beat; it becomes a rest.
	if n := len(ym.Beats); n > measure.BeatCount() {
		_, err := measure.EnsureBeat(n)
		if err != nil {
			return fmt.Errorf("measure %d: %w", m, err)
		}
	}

	return nil
}
