package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cracker/internal/tts"
	"github.com/dgnsrekt/cracker/internal/tts/engines"
	"github.com/dgnsrekt/cracker/internal/ttypes"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/gitcha"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	clipboardInput bool
	watch          bool
	show           bool

	markdownExtensions = []string{".md", ".mdown", ".mkdn", ".mkd", ".markdown"}

	speakCmd = &cobra.Command{
		Use:     "speak [FILE|-]",
		Short:   "Read a file, stdin or the clipboard aloud",
		Long:    paragraph(fmt.Sprintf("\n%s a file, stdin or the clipboard. Markdown files are read without their markup, and a directory reads every markdown file in it. With --watch the file is read again every time it is saved.", keyword("Read"))),
		Example: paragraph("cracker speak README.md\ncracker speak --show docs/\ncracker speak --watch draft.txt\necho hello | cracker speak -"),
		Args:    cobra.MaximumNArgs(1),
		RunE:    runSpeak,
	}
)

func addSpeakFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&clipboardInput, "clipboard", "c", false, "read the clipboard")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "read the file again whenever it changes")
	cmd.Flags().BoolVarP(&show, "show", "s", false, "print the rendered text before reading it")
}

func init() {
	addSpeakFlags(speakCmd)
}

// source is text to read together with where it came from.
type source struct {
	text string
	path string // empty for stdin and the clipboard
	dir  bool
}

// readSource resolves the speak argument to text.
func readSource(args []string, stdin io.Reader) (*source, error) {
	if clipboardInput {
		text, err := clipboard.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("unable to read clipboard: %w", err)
		}
		return &source{text: text}, nil
	}

	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("unable to read from reader: %w", err)
		}
		return &source{text: string(b)}, nil
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path: %w", err)
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}
	src := &source{path: path, dir: st.IsDir()}
	if err := src.reload(); err != nil {
		return nil, err
	}
	return src, nil
}

func (s *source) reload() error {
	if s.dir {
		text, err := readMarkdownDir(s.path)
		if err != nil {
			return err
		}
		s.text = text
		return nil
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("unable to open file: %w", err)
	}
	s.text = string(b)
	return nil
}

// readMarkdownDir joins the markdown files below dir, sorted by path.
// Files ignored by git are skipped.
func readMarkdownDir(dir string) (string, error) {
	globs := make([]string, len(markdownExtensions))
	for i, ext := range markdownExtensions {
		globs[i] = "*" + ext
	}
	ch, err := gitcha.FindFilesExcept(dir, globs, nil)
	if err != nil {
		return "", fmt.Errorf("unable to search %s: %w", dir, err)
	}

	var paths []string
	for res := range ch {
		paths = append(paths, res.Path)
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("no markdown files in %s", dir)
	}
	sort.Strings(paths)

	docs := make([]string, 0, len(paths))
	for _, path := range paths {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("unable to open file: %w", err)
		}
		log.Debug("Found markdown file", "path", path)
		docs = append(docs, strings.TrimSpace(string(b)))
	}
	return strings.Join(docs, "\n\n"), nil
}

func (s *source) isMarkdown() bool {
	if s.dir {
		return true
	}
	ext := strings.ToLower(filepath.Ext(s.path))
	for _, v := range markdownExtensions {
		if ext == v {
			return true
		}
	}
	return false
}

// prepareText turns a source into the text handed to the pipeline.
func prepareText(src *source, parser *tts.TextParser) string {
	text := src.text
	if src.isMarkdown() {
		text = tts.StripMarkdown(text)
	}
	if parser != nil {
		text = parser.Reduce(text)
	}
	return text
}

// renderSource renders src for the terminal. Plain text is shown as a code
// block.
func renderSource(src *source, width int, styled bool) (string, error) {
	style := glamour.WithStandardStyle("notty")
	if styled {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		style,
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}

	content := src.text
	if !src.isMarkdown() {
		content = "```\n" + content + "\n```"
	}
	out, err := r.Render(content)
	if err != nil {
		return "", fmt.Errorf("unable to render markdown: %w", err)
	}
	return out, nil
}

func runSpeak(cmd *cobra.Command, args []string) error {
	if watch && (clipboardInput || len(args) == 0 || args[0] == "-") {
		return errors.New("--watch needs a file")
	}
	if err := engines.ValidateVoice(cfg.Engine(), cfg.Voice); err != nil {
		return err //nolint:wrapcheck
	}

	src, err := readSource(args, os.Stdin)
	if err != nil {
		return err
	}
	if watch && src.dir {
		return errors.New("--watch needs a file")
	}

	w := cmd.OutOrStdout()
	if show {
		width, styled := 80, term.IsTerminal(int(os.Stdout.Fd()))
		if styled {
			if tw, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && tw > 0 {
				width = min(tw, 120)
			}
		}
		out, err := renderSource(src, width, styled)
		if err != nil {
			return err
		}
		fmt.Fprint(w, out)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("Shutdown incomplete", "err", err)
		}
	}()

	if watch {
		return watchAndSpeak(ctx, a.pipeline, src, a.parser, cfg.Voice, w)
	}
	return speakOnce(ctx, a.pipeline, prepareText(src, a.parser), cfg.Voice, w)
}

// speakOnce reads text and returns once the session ends. A failed session
// is an error; an interrupted one is not.
func speakOnce(ctx context.Context, p tts.Controller, text string, voice ttypes.VoiceConfig, w io.Writer) error {
	id, err := p.Speak(text, voice)
	if err != nil {
		return err //nolint:wrapcheck
	}

	events := p.Events()
	for {
		select {
		case <-ctx.Done():
			log.Info("Interrupted", "session", id)
			return p.Stop() //nolint:wrapcheck
		case ev, ok := <-events:
			if !ok {
				return tts.ErrClosed
			}
			if ev.Session != id {
				continue
			}
			printEvent(w, ev)
			switch ev.Type {
			case tts.EventCompleted, tts.EventCancelled:
				return nil
			case tts.EventFailed:
				return fmt.Errorf("speech failed: %w", ev.Err)
			}
		}
	}
}

// watchAndSpeak reads src, then reads it again each time the file is
// written. Every new read supersedes the one still playing.
func watchAndSpeak(ctx context.Context, p tts.Controller, src *source, parser *tts.TextParser, voice ttypes.VoiceConfig, w io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to watch %s: %w", src.path, err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace the file, so watch its directory.
	dir := filepath.Dir(src.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("unable to watch %s: %w", dir, err)
	}
	log.Info("fsnotify watching dir", "dir", dir)

	speak := func() {
		if _, err := p.Speak(prepareText(src, parser), voice); err != nil {
			fmt.Fprintln(w, errorStyle(err.Error()))
		}
	}
	speak()

	events := p.Events()
	for {
		select {
		case <-ctx.Done():
			return p.Stop() //nolint:wrapcheck
		case ev, ok := <-events:
			if !ok {
				return tts.ErrClosed
			}
			printEvent(w, ev)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != src.path || (!event.Has(fsnotify.Write) && !event.Has(fsnotify.Create)) {
				continue
			}
			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			if err := src.reload(); err != nil {
				log.Warn("Could not reload file", "path", src.path, "err", err)
				continue
			}
			fmt.Fprintln(w, faint("file changed, reading again"))
			speak()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", "dir", dir, "error", err)
		}
	}
}

func printEvent(w io.Writer, ev tts.Event) {
	switch ev.Type {
	case tts.EventChunkFailed, tts.EventFailed:
		fmt.Fprintln(w, errorStyle(ev.String()))
	case tts.EventChunkReady:
		fmt.Fprintln(w, faint(ev.String()))
	default:
		fmt.Fprintln(w, ev.String())
	}
}
