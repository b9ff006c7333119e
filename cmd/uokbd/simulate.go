package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"uokeyboard/internal/config"
	"uokeyboard/internal/history"
	"uokeyboard/internal/host"
	"uokeyboard/internal/host/memhost"
	"uokeyboard/internal/ime"
	"uokeyboard/internal/keyclass"
	"uokeyboard/internal/logging"
	"uokeyboard/internal/passthrough"
	"uokeyboard/internal/translit"
)

const simulatorClient host.ClientID = 1

func newSimulateCommand(a *app) *cobra.Command {
	var live bool

	cmd := &cobra.Command{
		Use:   "simulate [keys]",
		Short: "Type keys into an in-memory document",
		Long: `Replay keystrokes through the composition engine against an in-memory
text host and print the document after every key.

Keys are printable characters plus the escapes {bs}, {space}, {enter},
{tab}, {np.}, {np0} to {np9}, {shift} (shift the next key) and {caps}
(toggle caps lock). Without an argument, lines are read from stdin and
typed into the same document; with rules.watch set, edits to the rule file
take effect between lines.

With --live-keyboard (Windows only) keys are classified against the real
keyboard state and the keys the engine passes on are also injected into
the focused window.`,
		Example: `  uokbd simulate 'ami{space}tomake{enter}'
  uokbd simulate '{caps}kemon{bs}{bs}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := translit.LoadEngine(a.cfg.Rules.Path)
			if err != nil {
				return err
			}
			conv := translit.NewReloadable(engine)

			if a.cfg.Rules.Watch && a.cfg.Rules.Path != "" {
				w := translit.NewWatcher(a.cfg.Rules.Path, conv, a.log())
				w.OnReload(func(e *translit.Engine) {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "rules reloaded: %s (%d rules)\n", e.Name(), e.Rules())
				})
				if err := w.Start(); err != nil {
					return err
				}
				defer w.Close()
			}

			var observer ime.CommitObserver
			if a.cfg.History.Enabled {
				j, err := history.Open(a.cfg.History.Path)
				if err != nil {
					return err
				}
				defer j.Close()
				observer = j
			}

			sim, err := newSimulator(a.cfg, simOptions{
				conv:     conv,
				observer: observer,
				logger:   a.logger,
				live:     live,
				out:      cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}
			if err := sim.start(); err != nil {
				return err
			}

			if len(args) == 1 {
				err = sim.typeString(args[0])
			} else {
				err = sim.typeLines(cmd.InOrStdin())
			}
			if stopErr := sim.stop(); err == nil {
				err = stopErr
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&live, "live-keyboard", false, "read key state from and inject passed-through keys into the real keyboard")
	return cmd
}

type simOptions struct {
	conv     ime.Converter
	observer ime.CommitObserver
	logger   *logging.Logger
	live     bool
	out      io.Writer
}

// simulator wires the engine to an in-memory thread with one document.
type simulator struct {
	tm     *memhost.ThreadMgr
	ctx    *memhost.Context
	reader *keyclass.StaticReader // simulated modifiers
	passed *passthrough.Recorder
	ime    *ime.Ime
	out    io.Writer
}

func newSimulator(cfg *config.Config, opts simOptions) (*simulator, error) {
	clsid, err := cfg.IME.ParsedCLSID()
	if err != nil {
		return nil, err
	}
	logger := opts.logger
	if logger == nil {
		logger = logging.Default()
	}

	s := &simulator{
		tm:     memhost.NewThreadMgr(),
		ctx:    memhost.NewContext("simulator"),
		reader: &keyclass.StaticReader{Layout: keyclass.USLayout},
		out:    opts.out,
	}
	s.tm.Native = s.native

	var (
		state  keyclass.StateReader = s.reader
		system host.KeystrokeEmitter
	)
	if opts.live {
		system, err = passthrough.NewSystem()
		if err != nil {
			return nil, fmt.Errorf("live keyboard: %w", err)
		}
		state = keyclass.NewOSReader()
		logger.Info("live keyboard enabled")
	}
	s.passed = passthrough.NewRecorder(passthrough.Multi(s.tm, system))

	s.ime, err = ime.New(ime.Options{
		Converter:   opts.conv,
		Classifier:  keyclass.NewClassifier(state, logger.Logger),
		Emitter:     passthrough.NewLogged(s.passed, logger.Logger),
		Observer:    opts.observer,
		LanguageID:  cfg.IME.LanguageID,
		CLSID:       clsid,
		Description: cfg.IME.Description,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *simulator) start() error {
	if err := s.tm.SetFocus(memhost.NewDocumentMgr("simulator", s.ctx)); err != nil {
		return err
	}
	return s.ime.Activate(s.tm, simulatorClient)
}

// stop deactivates the engine, committing any open composition.
func (s *simulator) stop() error {
	if err := s.ime.Deactivate(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(s.out, "%-8s %q\n", "(done)", s.ctx.Text())
	return err
}

// native is what the application types for keys the engine passes on.
func (s *simulator) native(code uint16) rune {
	switch c := keyclass.Classify(code, s.reader.State, s.reader.Translate(code)).(type) {
	case keyclass.CompositeConvertible:
		return c.Char
	case keyclass.FreeConvertible:
		return c.Char
	case keyclass.NumPad:
		return c.Char
	case keyclass.Unprocessed:
		return c.Char
	}
	switch code {
	case keyclass.VKSpace:
		return ' '
	case keyclass.VKReturn:
		return '\n'
	case keyclass.VKTab:
		return '\t'
	}
	return 0
}

func (s *simulator) typeLines(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := s.typeString(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (s *simulator) typeString(keys string) error {
	strokes, err := parseKeys(keys)
	if err != nil {
		return err
	}
	for _, k := range strokes {
		if err := s.press(k); err != nil {
			return fmt.Errorf("key %s: %w", k.label, err)
		}
		s.print(k)
	}
	return nil
}

func (s *simulator) press(k keyStroke) error {
	if k.toggleCaps {
		s.reader.State.CapsLock = !s.reader.State.CapsLock
		return nil
	}

	s.reader.State.Shift = k.shift
	defer func() { s.reader.State.Shift = false }()

	eaten, err := s.tm.PressKey(host.KeyEvent{Code: k.code})
	if err != nil {
		return err
	}
	if !eaten && k.code == keyclass.VKBack {
		return s.deleteBack()
	}
	return nil
}

// deleteBack is the application's own backspace.
func (s *simulator) deleteBack() error {
	start, end := s.ctx.SelectionOffsets()
	if start == end {
		if start == 0 {
			return nil
		}
		start--
	}
	return s.ctx.Replace(start, end, "", start)
}

func (s *simulator) print(k keyStroke) {
	line := fmt.Sprintf("%-8s %q", k.label, s.ctx.Text())
	if s.ime.Composing() {
		line += fmt.Sprintf("  composing %q", s.ime.Input())
	}
	if k.toggleCaps {
		line += fmt.Sprintf("  caps=%t", s.reader.State.CapsLock)
	}
	if keys := s.passed.Keys(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, key := range keys {
			names[i] = keyclass.KeyName(key.Code)
		}
		line += "  passthrough " + strings.Join(names, " ")
		s.passed.Reset()
	}
	_, _ = fmt.Fprintln(s.out, line)
}
