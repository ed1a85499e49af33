package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/spf13/pflag"
	"go.uber.org/dig"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mikey/email-concierge/internal/adapters/filter"
	"github.com/mikey/email-concierge/internal/adapters/imap"
	"github.com/mikey/email-concierge/internal/config"
	"github.com/mikey/email-concierge/internal/contacts"
	"github.com/mikey/email-concierge/internal/core"
	"github.com/mikey/email-concierge/internal/credential"
	"github.com/mikey/email-concierge/internal/di"
	"github.com/mikey/email-concierge/internal/ports"
)

func main() {
	flags, err := di.ParseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	if flags.SetCredential != "" || flags.DeleteCredential != "" {
		if err := manageCredential(flags); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	err = container.Invoke(func(p params) error {
		return run(container, p)
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// manageCredential stores or removes a keyring secret. On a terminal the
// secret is prompted for without echo; otherwise it is read from stdin.
func manageCredential(flags *di.CLIFlags) error {
	if key := flags.DeleteCredential; key != "" {
		if err := credential.Delete(key); err != nil {
			return err
		}
		fmt.Printf("Removed %s from the keyring\n", key)
		return nil
	}

	key := flags.SetCredential
	if stat, err := os.Stdin.Stat(); err == nil && stat.Mode()&os.ModeCharDevice != 0 {
		var secret string
		err := huh.NewInput().
			Title(key).
			EchoMode(huh.EchoModePassword).
			Value(&secret).
			Validate(func(s string) error {
				if s == "" {
					return errors.New("value is required")
				}
				return nil
			}).
			Run()
		if err != nil {
			return fmt.Errorf("failed to read credential: %w", err)
		}
		if err := credential.Set(key, secret); err != nil {
			return err
		}
	} else if err := credential.SetFromReader(key, os.Stdin); err != nil {
		return err
	}

	fmt.Printf("Stored %s in the keyring\n", key)
	return nil
}

// params are the dependencies injected into run. The mailbox is not among
// them so the IMAP settings are only required in --imap mode.
type params struct {
	dig.In

	Flags    *di.CLIFlags
	Config   *config.Config
	Logger   *zap.Logger
	Service  *core.ConciergeService
	Contacts *contacts.Directory
	Out      *filter.CliFilter
	Drafter  core.Drafter
	Store    ports.DraftStore
}

type app struct {
	container *dig.Container
	flags     *di.CLIFlags
	cfg       *config.Config
	logger    *zap.Logger
	service   *core.ConciergeService
	contacts  *contacts.Directory
	out       *filter.CliFilter
}

// triaged pairs a parsed message with its outcome
type triaged struct {
	msg    *filter.Message
	result *core.TriageResult
	err    error
}

func run(container *dig.Container, p params) error {
	logger := p.Logger
	defer logger.Sync()
	defer func() {
		if closer, ok := p.Drafter.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close drafter", zap.Error(err))
			}
		}
		if p.Store != nil {
			p.Store.Stop()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{
		container: container,
		flags:     p.Flags,
		cfg:       p.Config,
		logger:    logger,
		service:   p.Service,
		contacts:  p.Contacts,
		out:       p.Out,
	}

	if a.flags.IMAP {
		return a.runMailbox(ctx)
	}
	return a.runSingle(ctx)
}

// runSingle triages one message read from a file or stdin
func (a *app) runSingle(ctx context.Context) error {
	var reader io.Reader = os.Stdin
	if a.flags.InputFile != "" {
		file, err := os.Open(a.flags.InputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		reader = file
		a.logger.Debug("Reading email from file", zap.String("file", a.flags.InputFile))
	} else {
		a.logger.Debug("Reading email from stdin")
	}

	msg, err := filter.ParseMessage(reader)
	if err != nil {
		return err
	}

	hints := a.contacts.Resolve(a.flags.Hints, msg.From)
	if a.flags.Interactive {
		if hints, err = a.confirmSignals(msg, hints); err != nil {
			return err
		}
	}

	result, err := a.triage(ctx, msg, hints)
	if err != nil {
		return err
	}
	return a.print([]triaged{{msg: msg, result: result}})
}

// runMailbox triages the latest messages of the configured IMAP mailbox
func (a *app) runMailbox(ctx context.Context) error {
	var mailbox *imap.Mailbox
	if err := a.container.Invoke(func(m *imap.Mailbox) { mailbox = m }); err != nil {
		return err
	}

	messages, err := mailbox.FetchRecent(ctx, a.cfg.GetIMAP().Limit)
	if err != nil {
		return err
	}
	a.logger.Info("Fetched messages", zap.Int("count", len(messages)))

	results := make([]triaged, len(messages))
	g, gctx := errgroup.WithContext(ctx)
	if workers := a.cfg.GetInt("triage.workers"); workers > 0 {
		g.SetLimit(workers)
	}

	for i, fetched := range messages {
		g.Go(func() error {
			results[i] = a.triageRaw(gctx, fetched)
			return nil
		})
	}
	_ = g.Wait()

	if a.flags.SaveDrafts {
		a.saveDrafts(ctx, mailbox, results)
	}
	return a.print(results)
}

func (a *app) triageRaw(ctx context.Context, fetched imap.FetchedMessage) triaged {
	var t triaged
	msg, err := filter.ParseMessageBytes(fetched.Raw)
	if err != nil {
		t.err = err
		t.msg = &filter.Message{Subject: fmt.Sprintf("UID %d", fetched.UID)}
		return t
	}
	t.msg = msg
	t.result, t.err = a.triage(ctx, msg, a.contacts.Resolve(a.flags.Hints, msg.From))
	return t
}

func (a *app) triage(ctx context.Context, msg *filter.Message, hints core.Hints) (*core.TriageResult, error) {
	input := core.EmailInput{
		Sender:    msg.From,
		Subject:   msg.Subject,
		Body:      msg.Body,
		UserNotes: a.flags.UserNotes,
	}
	if a.flags.NoDraft {
		return &core.TriageResult{Assessment: a.service.Assess(input, hints)}, nil
	}
	return a.service.Triage(ctx, input, hints)
}

// confirmSignals asks the user to confirm every signal the caller left to inference
func (a *app) confirmSignals(msg *filter.Message, hints core.Hints) (core.Hints, error) {
	inferred := a.service.Assess(core.EmailInput{
		Sender:  msg.From,
		Subject: msg.Subject,
		Body:    msg.Body,
	}, hints).Signals

	questions := []struct {
		title string
		hint  **bool
		value bool
	}{
		{"Is this a reply to a thread you started?", &hints.IsReplyToUser, inferred.IsReplyToUser},
		{"Is the sender a known contact?", &hints.KnownContact, inferred.KnownContact},
		{"Is the sender a person?", &hints.HumanSender, inferred.HumanSender},
		{"Is this transactional (receipt, invoice, shipping)?", &hints.IsTransactional, inferred.IsTransactional},
		{"Is this a newsletter?", &hints.IsNewsletter, inferred.IsNewsletter},
	}

	var fields []huh.Field
	answers := make([]*bool, 0, len(questions))
	for _, q := range questions {
		if *q.hint != nil {
			continue
		}
		answer := q.value
		*q.hint = &answer
		answers = append(answers, &answer)
		fields = append(fields, huh.NewConfirm().
			Title(q.title).
			Affirmative("Yes").
			Negative("No").
			Value(&answer))
	}
	if len(fields) == 0 {
		return hints, nil
	}

	form := huh.NewForm(huh.NewGroup(fields...).Title(msg.Subject))
	if err := form.Run(); err != nil {
		return hints, fmt.Errorf("failed to confirm signals: %w", err)
	}
	a.logger.Debug("Signals confirmed", zap.Int("answered", len(answers)))
	return hints, nil
}

func (a *app) saveDrafts(ctx context.Context, mailbox *imap.Mailbox, results []triaged) {
	var mu sync.Mutex
	saved := 0
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2)
	for _, t := range results {
		if t.err != nil || t.result == nil || !t.result.HasDraft() {
			continue
		}
		g.Go(func() error {
			reply := imap.DraftReply{
				To:         t.msg.From,
				Subject:    t.msg.Subject,
				Body:       *t.result.Draft,
				InReplyTo:  t.msg.MessageID,
				References: t.msg.References,
			}
			if err := mailbox.SaveDraft(gctx, reply); err != nil {
				a.logger.Error("Failed to save draft", zap.String("subject", t.msg.Subject), zap.Error(err))
				return nil
			}
			mu.Lock()
			saved++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	a.logger.Info("Saved drafts", zap.Int("count", saved))
}

func (a *app) print(results []triaged) error {
	if a.flags.JSON {
		ok := make([]*core.TriageResult, 0, len(results))
		for _, t := range results {
			if t.err != nil {
				a.logger.Error("Failed to triage message", zap.String("subject", t.msg.Subject), zap.Error(t.err))
				continue
			}
			ok = append(ok, t.result)
		}
		return a.out.PrintJSON(ok...)
	}

	for _, t := range results {
		if t.err != nil {
			a.out.PrintError(t.msg.Subject, t.err)
			continue
		}
		a.out.PrintResult(t.msg, t.result)
	}
	return nil
}
