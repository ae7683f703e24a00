package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pixil98/go-idle/internal/display"
	"github.com/pixil98/go-idle/internal/game"
)

type commandFunc func(ctx context.Context, s *Session, args []string) error

// Command is one console verb.
type Command struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string

	run commandFunc
}

var commands []Command

func init() {
	commands = []Command{
		{Name: "click", Aliases: []string{"c"}, Usage: "click [n]", Description: "Click the poop n times.", run: doClick},
		{Name: "buy", Aliases: []string{"b"}, Usage: "buy <producer>", Description: "Buy one producer by store number or name.", run: doBuy},
		{Name: "store", Aliases: []string{"shop"}, Usage: "store", Description: "List producers, costs and what you own.", run: doStore},
		{Name: "status", Aliases: []string{"st"}, Usage: "status", Description: "Show your poop, rate and prestige progress.", run: doStatus},
		{Name: "achievements", Aliases: []string{"ach"}, Usage: "achievements [id]", Description: "List achievements, or show one in detail.", run: doAchievements},
		{Name: "bonus", Usage: "bonus", Description: "Show golden poop events and active bonuses.", run: doBonus},
		{Name: "collect", Usage: "collect [id]", Description: "Collect a golden poop.", run: doCollect},
		{Name: "prestige", Usage: "prestige", Description: "Reset progress for Gold Essence.", run: doPrestige},
		{Name: "save", Usage: "save", Description: "Save the game now.", run: doSave},
		{Name: "help", Aliases: []string{"?"}, Usage: "help [command]", Description: "Show this list or help for one command.", run: doHelp},
		{Name: "quit", Aliases: []string{"exit"}, Usage: "quit", Description: "Save and disconnect.", run: doQuit},
	}
}

func lookupCommand(name string) (Command, bool) {
	for _, c := range commands {
		if c.Name == name {
			return c, true
		}
		for _, a := range c.Aliases {
			if a == name {
				return c, true
			}
		}
	}
	return Command{}, false
}

func doClick(_ context.Context, s *Session, args []string) error {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return NewUserError("Click how many times? Give a positive number.")
		}
		n = v
	}
	if n > s.maxClicks {
		return NewUserError(fmt.Sprintf("You can click at most %d times at once.", s.maxClicks))
	}

	total := 0.0
	for i := 0; i < n; i++ {
		amount, err := s.engine.Click()
		if err != nil {
			return err
		}
		total += amount
	}

	snap := s.engine.Snapshot()
	return s.writeLine(fmt.Sprintf("+%s poop! You have %s.", display.Rate(total), display.Count(snap.ResourceCount)))
}

func doBuy(ctx context.Context, s *Session, args []string) error {
	if len(args) == 0 {
		return NewUserError("Buy what? See 'store' for the list.")
	}

	p, ok := resolveProducer(s.engine.Catalog(), strings.Join(args, " "))
	if !ok {
		return NewUserError(fmt.Sprintf("There is no producer called %q.", strings.Join(args, " ")))
	}

	res, err := s.engine.Purchase(ctx, p.ID)
	if errors.Is(err, game.ErrInsufficientFunds) {
		snap := s.engine.Snapshot()
		return NewUserError(fmt.Sprintf("A %s costs %s poop; you have %s.",
			p.DisplayName, display.Count(game.Cost(p.BaseCost, snap.Owned(p.ID))), display.Count(snap.ResourceCount)))
	}
	if err != nil {
		return err
	}

	return s.writeLine(fmt.Sprintf("Bought a %s for %s. You own %d; the next costs %s.",
		p.DisplayName, display.Count(res.Cost), res.OwnedCount, display.Count(res.NextCost)))
}

// resolveProducer matches a store number, id or display name, case-insensitively.
func resolveProducer(c game.Catalog, arg string) (game.ProducerType, bool) {
	arg = strings.ToLower(strings.TrimSpace(arg))

	if i, err := strconv.Atoi(arg); err == nil {
		if i < 1 || i > len(c.Producers) {
			return game.ProducerType{}, false
		}
		return c.Producers[i-1], true
	}

	for _, p := range c.Producers {
		if strings.ToLower(string(p.ID)) == arg || strings.ToLower(p.DisplayName) == arg {
			return p, true
		}
	}
	return game.ProducerType{}, false
}

type storeRow struct {
	Index int
	game.ProducerSnapshot
}

func doStore(_ context.Context, s *Session, _ []string) error {
	snap := s.engine.Snapshot()

	rows := make([]storeRow, 0, len(snap.Producers))
	for i, p := range snap.Producers {
		rows = append(rows, storeRow{Index: i + 1, ProducerSnapshot: p})
	}

	out, err := render("store", struct{ Rows []storeRow }{Rows: rows})
	if err != nil {
		return err
	}
	return s.writeLine(out)
}

func doStatus(_ context.Context, s *Session, _ []string) error {
	out, err := render("status", s.engine.Snapshot())
	if err != nil {
		return err
	}
	return s.writeLine(out)
}

func doAchievements(_ context.Context, s *Session, args []string) error {
	if len(args) > 0 {
		return showAchievement(s, args[0])
	}

	rows := s.engine.Achievements()
	unlocked := 0
	for _, a := range rows {
		if a.Unlocked {
			unlocked++
		}
	}

	out, err := render("achievements", struct {
		Unlocked int
		Rows     []game.AchievementStatus
	}{Unlocked: unlocked, Rows: rows})
	if err != nil {
		return err
	}
	return s.writeLine(out)
}

func showAchievement(s *Session, arg string) error {
	id := game.AchievementID(strings.ToUpper(arg))
	a, ok := s.engine.Catalog().Achievement(id)
	if !ok {
		return NewUserError(fmt.Sprintf("There is no achievement %q.", arg))
	}

	state := "locked"
	if s.engine.Snapshot().Unlocked(id) {
		state = "unlocked"
	}
	return s.writeLine(s.wrap(fmt.Sprintf("%s (%s, %s): %s", a.Title, a.ID, state, a.Description)))
}

type bonusRow struct {
	ID        string
	Factor    float64
	Remaining time.Duration
}

func doBonus(_ context.Context, s *Session, _ []string) error {
	snap := s.engine.Snapshot()

	view := struct {
		Events []bonusRow
		Active []bonusRow
	}{}
	for _, ev := range snap.BonusEvents {
		view.Events = append(view.Events, bonusRow{ID: ev.ID, Remaining: remaining(snap.At, ev.ExpiresAt)})
	}
	for _, act := range snap.ActiveBonuses {
		view.Active = append(view.Active, bonusRow{ID: act.ID, Factor: act.Factor, Remaining: remaining(snap.At, act.ExpiresAt)})
	}

	out, err := render("bonus", view)
	if err != nil {
		return err
	}
	return s.writeLine(out)
}

func remaining(now, until time.Time) time.Duration {
	d := until.Sub(now).Round(time.Second)
	if d < 0 {
		return 0
	}
	return d
}

func doCollect(_ context.Context, s *Session, args []string) error {
	events := s.engine.Snapshot().BonusEvents
	if len(events) == 0 {
		return NewUserError("There is no golden poop to collect.")
	}

	// With no id, collect the oldest visible event.
	id := events[0].ID
	if len(args) > 0 {
		var matches []string
		for _, ev := range events {
			if strings.HasPrefix(ev.ID, strings.ToLower(args[0])) {
				matches = append(matches, ev.ID)
			}
		}
		switch len(matches) {
		case 0:
			return NewUserError(fmt.Sprintf("No golden poop matches %q.", args[0]))
		case 1:
			id = matches[0]
		default:
			return NewUserError(fmt.Sprintf("%q matches more than one golden poop.", args[0]))
		}
	}

	act, err := s.engine.CollectBonus(id)
	if errors.Is(err, game.ErrBonusNotFound) {
		return NewUserError("Too slow! The golden poop is gone.")
	}
	if err != nil {
		return err
	}

	return s.writeLine(fmt.Sprintf("Golden poop collected! Production x%g for %s.", act.Factor, act.ExpiresAt.Sub(act.CollectedAt)))
}

func doPrestige(ctx context.Context, s *Session, _ []string) error {
	ok, err := s.engine.RequestPrestige(ctx, s)
	if errors.Is(err, game.ErrPrestigeLocked) {
		snap := s.engine.Snapshot()
		return NewUserError(fmt.Sprintf("Prestige unlocks at %s total poop. You are %s of the way there.",
			display.Count(game.PrestigeThreshold), display.Percent(snap.PrestigeProgress)))
	}
	if err != nil {
		return err
	}
	if !ok {
		return s.writeLine("Prestige cancelled.")
	}
	return nil
}

func doSave(ctx context.Context, s *Session, _ []string) error {
	if err := s.engine.Save(ctx); err != nil {
		s.logger.WarnContext(ctx, "manual save failed", "error", err)
		return NewUserError("Saving failed. The game will keep trying automatically.")
	}
	return s.writeLine("Game saved.")
}

func doHelp(_ context.Context, s *Session, args []string) error {
	if len(args) > 0 {
		c, ok := lookupCommand(strings.ToLower(args[0]))
		if !ok {
			return NewUserError(fmt.Sprintf("Command %q is unknown.", args[0]))
		}
		lines := []string{fmt.Sprintf("%s: %s", c.Name, c.Description), "Usage: " + c.Usage}
		if len(c.Aliases) > 0 {
			lines = append(lines, "Aliases: "+strings.Join(c.Aliases, ", "))
		}
		return s.writeLine(strings.Join(lines, "\n"))
	}

	out, err := render("help", commands)
	if err != nil {
		return err
	}
	return s.writeLine(out)
}

func doQuit(ctx context.Context, s *Session, _ []string) error {
	if err := s.engine.Save(ctx); err != nil {
		s.logger.WarnContext(ctx, "save on quit failed", "error", err)
	}
	s.quit = true
	return s.writeLine("Goodbye!")
}

func (s *Session) renderNotification(n game.Notification) string {
	if n.Message == "" {
		return s.wrap(fmt.Sprintf("*** %s ***", n.Title))
	}
	return s.wrap(fmt.Sprintf("*** %s *** %s", n.Title, n.Message))
}
