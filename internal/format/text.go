// Package format converts songs to and from their external forms: the
// line-oriented text grammar, the binary snapshot, YAML, and the
// write-only plain-text and HTML renderings.
//
// # Text grammar
//
// The first line is the version tag ([Version]). Every later line is cut at
// the first unescaped '#' (a trailing comment) and ignored if nothing but
// whitespace remains. The first token selects the kind of line:
//
//	m3p                    page break after measure 3
//	m3r                    repeat bar at the end of measure 3
//	m3a Verse 1            measure annotation
//	m3b2a let ring         beat annotation
//	m3b2 s6f0 s5f2h        notes: string 6 fret 0, string 5 fret 2 hammer-on
//	m3b4                   beat with no notes (keeps the measure 4 beats long)
//	@tuning dropd          song tuning (omitted for standard)
//	@annotation text       song annotation
//	@track 2 Lead          following lines belong to track 2
//
// Note tokens take an optional articulation suffix: h (hammer-on),
// p (pull-off) or s (slide). Inside free text, "\#" is a literal '#' and
// "\\" a literal backslash.
//
// A beat with no notes and no annotation leaves no line behind, so the
// encoder always writes a line for the last beat of a measure when it is a
// rest. Decoding that line restores the measure's beat count.
package format

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/calvinalkan/tabedit/internal/tab"
)

// Version is the only version tag [Decode] accepts.
const Version = "v1.0"

const maxLineSize = 1 << 20

// Marshal encodes song to the text grammar.
func Marshal(song *tab.Song) ([]byte, error) {
	var buf bytes.Buffer

	err := Encode(&buf, song)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Unmarshal decodes a song from the text grammar. See [Decode].
func Unmarshal(data []byte) (*tab.Song, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a song in the text grammar. On failure no song is returned;
// grammar and range problems are reported as a [*ParseError].
//
// The returned song has no name; callers derive it from the file name.
func Decode(r io.Reader) (*tab.Song, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	d := decoder{song: &tab.Song{}, track: 1}

	for scanner.Scan() {
		d.line++

		text := strings.TrimSuffix(scanner.Text(), "\r")

		if d.line == 1 {
			if text != Version {
				return nil, &ParseError{Line: 1, Text: text, Err: fmt.Errorf("%w: %q", ErrVersion, text)}
			}

			continue
		}

		err := d.decodeLine(text)
		if err != nil {
			return nil, &ParseError{Line: d.line, Text: text, Err: err}
		}
	}

	err := scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	if d.line == 0 {
		return nil, &ParseError{Line: 1, Err: fmt.Errorf("%w: empty input", ErrVersion)}
	}

	d.song.Normalize()

	return d.song, nil
}

type decoder struct {
	song  *tab.Song
	track int
	line  int
}

func (d *decoder) decodeLine(raw string) error {
	text := stripComment(raw)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	fields := strings.Fields(text)
	token := fields[0]

	if strings.HasPrefix(token, "@") {
		return d.decodeDirective(token, freeText(text, token))
	}

	switch token[len(token)-1] {
	case 'p':
		m, err := d.flagMeasure(token)
		if err != nil {
			return err
		}

		m.PageBreak = true

		return nil
	case 'r':
		m, err := d.flagMeasure(token)
		if err != nil {
			return err
		}

		m.Repeat = true

		return nil
	case 'a':
		return d.decodeAnnotation(token, freeText(text, token))
	default:
		return d.decodeNotes(token, fields[1:])
	}
}

// flagMeasure resolves the measure of a page break or repeat token.
func (d *decoder) flagMeasure(token string) (*tab.Measure, error) {
	m, b, err := parsePosition(token[:len(token)-1])
	if err != nil {
		return nil, err
	}

	if b != 0 {
		return nil, fmt.Errorf("%w: flag token %q names a beat", ErrMalformed, token)
	}

	return d.measure(m)
}

func (d *decoder) decodeAnnotation(token, text string) error {
	m, b, err := parsePosition(token[:len(token)-1])
	if err != nil {
		return err
	}

	measure, err := d.measure(m)
	if err != nil {
		return err
	}

	if b == 0 {
		measure.Annotation = text

		return nil
	}

	beat, err := measure.EnsureBeat(b)
	if err != nil {
		return err
	}

	beat.Annotation = text

	return nil
}

func (d *decoder) decodeNotes(token string, notes []string) error {
	m, b, err := parsePosition(token)
	if err != nil {
		return err
	}

	if b == 0 {
		return fmt.Errorf("%w: note line %q has no beat", ErrMalformed, token)
	}

	measure, err := d.measure(m)
	if err != nil {
		return err
	}

	beat, err := measure.EnsureBeat(b)
	if err != nil {
		return err
	}

	for _, tok := range notes {
		note, err := parseNote(tok)
		if err != nil {
			return err
		}

		err = beat.SetNote(note)
		if err != nil {
			return err
		}
	}

	return nil
}

func (d *decoder) decodeDirective(token, text string) error {
	switch token {
	case "@tuning":
		idx, err := tab.LookupTuning(text)
		if err != nil {
			return err
		}

		d.song.Tuning = idx
	case "@annotation":
		d.song.Annotation = text
	case "@track":
		numText, name, _ := strings.Cut(text, " ")

		n, err := parseNumber(numText)
		if err != nil {
			return fmt.Errorf("%w: track number %q", ErrMalformed, numText)
		}

		track, err := d.song.EnsureTrack(n)
		if err != nil {
			return err
		}

		track.Name = strings.TrimSpace(name)
		d.track = n
	default:
		return fmt.Errorf("%w: unknown directive %q", ErrMalformed, token)
	}

	return nil
}

func (d *decoder) measure(m int) (*tab.Measure, error) {
	track, err := d.song.EnsureTrack(d.track)
	if err != nil {
		return nil, err
	}

	return track.EnsureMeasure(m)
}

// parsePosition parses "m<measure>" or "m<measure>b<beat>". beat is 0 when
// the token has no beat part.
func parsePosition(s string) (int, int, error) {
	rest, ok := strings.CutPrefix(s, "m")
	if !ok {
		return 0, 0, fmt.Errorf("%w: token %q must start with 'm'", ErrMalformed, s)
	}

	mText, bText, hasBeat := strings.Cut(rest, "b")

	m, err := parseNumber(mText)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: measure number in %q", ErrMalformed, s)
	}

	if !hasBeat {
		return m, 0, nil
	}

	b, err := parseNumber(bText)
	if err != nil || b == 0 {
		return 0, 0, fmt.Errorf("%w: beat number in %q", ErrMalformed, s)
	}

	return m, b, nil
}

// parseNote parses "s<string>f<fret>" with an optional articulation suffix.
func parseNote(tok string) (tab.Note, error) {
	rest, ok := strings.CutPrefix(tok, "s")
	if !ok {
		return tab.Note{}, fmt.Errorf("%w: note %q must start with 's'", ErrMalformed, tok)
	}

	sText, fText, ok := strings.Cut(rest, "f")
	if !ok {
		return tab.Note{}, fmt.Errorf("%w: note %q has no fret", ErrMalformed, tok)
	}

	art := tab.Normal

	if n := len(fText); n > 0 {
		if a, known := suffixArticulation[fText[n-1]]; known {
			art = a
			fText = fText[:n-1]
		}
	}

	str, err := parseNumber(sText)
	if err != nil {
		return tab.Note{}, fmt.Errorf("%w: string number in %q", ErrMalformed, tok)
	}

	fret, err := parseNumber(fText)
	if err != nil {
		return tab.Note{}, fmt.Errorf("%w: fret number in %q", ErrMalformed, tok)
	}

	return tab.NewNote(str, fret, art)
}

// parseNumber accepts plain decimal digits only (no sign, no spaces).
func parseNumber(s string) (int, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}

	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return 0, strconv.ErrSyntax
		}
	}

	return strconv.Atoi(s)
}

var suffixArticulation = map[byte]tab.Articulation{
	'h': tab.Hammer,
	'p': tab.Pulloff,
	's': tab.Slide,
}

var articulationSuffix = map[tab.Articulation]string{
	tab.Hammer:  "h",
	tab.Pulloff: "p",
	tab.Slide:   "s",
}

// stripComment cuts line at the first '#' that is not escaped.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '#':
			return line[:i]
		}
	}

	return line
}

// freeText returns the unescaped text after token, trimmed.
func freeText(line, token string) string {
	idx := strings.Index(line, token)
	rest := line[idx+len(token):]

	return strings.TrimSpace(unescape(rest))
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder

	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '#' || s[i+1] == '\\') {
			i++
		}

		b.WriteByte(s[i])
	}

	return b.String()
}

var escaper = strings.NewReplacer(`\`, `\\`, "#", `\#`, "\r\n", " ", "\n", " ", "\r", " ")

func escape(s string) string {
	return escaper.Replace(s)
}

// Encode writes song in the text grammar. Directives are only written for
// non-default values, so a plain single-track song produces exactly the
// historical "m<measure>b<beat>" lines.
func Encode(w io.Writer, song *tab.Song) error {
	bw := bufio.NewWriter(w)
	e := encoder{w: bw}

	e.printf("%s\n", Version)

	if song.Tuning != 0 {
		e.printf("@tuning %s\n", song.TuningInfo().Name)
	}

	if song.Annotation != "" {
		e.printf("@annotation %s\n", escape(song.Annotation))
	}

	first := song.Track(1)
	multi := song.TrackCount() > 1 || (first != nil && first.Name != "")

	for t := 1; t <= song.TrackCount(); t++ {
		track := song.Track(t)
		if track == nil {
			continue
		}

		if multi {
			e.printf("@track %d", t)

			if track.Name != "" {
				e.printf(" %s", escape(track.Name))
			}

			e.printf("\n")
		}

		for m := 1; m <= track.MeasureCount(); m++ {
			e.encodeMeasure(m, track.Measure(m))
		}
	}

	if e.err != nil {
		return e.err
	}

	return bw.Flush()
}

type encoder struct {
	w   *bufio.Writer
	err error
}

func (e *encoder) printf(format string, args ...any) {
	if e.err != nil {
		return
	}

	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *encoder) encodeMeasure(m int, measure *tab.Measure) {
	if measure == nil {
		return
	}

	if measure.PageBreak {
		e.printf("m%dp\n", m)
	}

	if measure.Repeat {
		e.printf("m%dr\n", m)
	}

	if measure.Annotation != "" {
		e.printf("m%da %s\n", m, escape(measure.Annotation))
	}

	count := measure.BeatCount()

	for b := 1; b <= count; b++ {
		beat := measure.Beat(b)
		if beat == nil {
			continue
		}

		if beat.Annotation != "" {
			e.printf("m%db%da %s\n", m, b, escape(beat.Annotation))
		}

		notes := beat.Notes()
		if len(notes) == 0 {
			continue
		}

		e.printf("m%db%d", m, b)

		for _, n := range notes {
			e.printf(" s%df%d%s", n.String, n.Fret, articulationSuffix[n.Articulation])
		}

		e.printf("\n")
	}

	if count > 0 && measure.Beat(count).IsRest() {
		e.printf("m%db%d\n", m, count)
	}
}
