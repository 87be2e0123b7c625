package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/lifesim/internal/api"
	"github.com/talgya/lifesim/internal/character"
	"github.com/talgya/lifesim/internal/config"
	"github.com/talgya/lifesim/internal/engine"
	"github.com/talgya/lifesim/internal/entropy"
	"github.com/talgya/lifesim/internal/family"
	"github.com/talgya/lifesim/internal/llm"
	"github.com/talgya/lifesim/internal/persistence"
)

var attributeLabels = map[string]string{
	"iq":         "智商",
	"eq":         "情商",
	"health":     "健康",
	"health_max": "健康上限",
	"moral":      "道德",
	"social":     "社交",
	"money":      "金钱",
	"luck":       "运气",
}

// terminal is the line-oriented presentation layer.
type terminal struct {
	lines <-chan string
	out   io.Writer
	sess  *engine.Session
	db    *persistence.DB
	rng   entropy.Source

	observer *api.Observer // Optional
	narrator *llm.Client   // Optional
}

func newTerminal(in io.Reader, out io.Writer, sess *engine.Session, db *persistence.DB, rng entropy.Source) *terminal {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- strings.TrimSpace(sc.Text())
		}
	}()
	return &terminal{lines: lines, out: out, sess: sess, db: db, rng: rng}
}

// show prints a turn and publishes it to the observer.
func (t *terminal) show(turn engine.Turn) {
	t.printTurn(turn)
	if turn.Died && turn.Summary != nil && t.narrator.Enabled() {
		t.eulogy(*turn.Summary)
	}
	if t.observer == nil {
		return
	}
	if err := t.observer.Publish(t.sess, turn); err != nil {
		slog.Warn("failed to publish turn", "error", err)
	}
}

func (t *terminal) eulogy(sum engine.Summary) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	text, err := llm.GenerateEulogy(ctx, t.narrator, sum, t.sess.Character)
	if err != nil {
		slog.Warn("eulogy unavailable", "error", err)
		return
	}
	fmt.Fprintf(t.out, "\n%s\n", text)
}

// ask prints a prompt and waits for one line. It returns false on EOF or
// cancellation.
func (t *terminal) ask(ctx context.Context, prompt string) (string, bool) {
	fmt.Fprint(t.out, prompt)
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-t.lines:
		return line, ok
	}
}

func (t *terminal) interactive(ctx context.Context) {
	fmt.Fprintln(t.out, "人生模拟器：回车度过一年，数字作出选择，i 状态，l 经历，h 抉择，t 族谱，s 保存，q 退出")
	if !t.resume(ctx, true) && !t.newGame(ctx) {
		return
	}

	for {
		if t.sess.Character.Deceased {
			if !t.afterDeath(ctx) {
				return
			}
			continue
		}

		line, ok := t.ask(ctx, "> ")
		if !ok {
			return
		}
		switch line {
		case "", "n":
			t.show(t.sess.AdvanceYear())
		case "i":
			t.printStatus()
		case "l":
			t.printLifeLog()
		case "h":
			t.printDecisions()
		case "t":
			t.printTree()
		case "s":
			if err := t.sess.Save(ctx); err != nil {
				fmt.Fprintf(t.out, "保存失败：%v\n", err)
			} else {
				fmt.Fprintln(t.out, "已保存")
			}
		case "q":
			return
		default:
			idx, err := strconv.Atoi(line)
			if err != nil {
				fmt.Fprintln(t.out, "未知命令")
				continue
			}
			turn, ok := t.sess.Choose(idx - 1)
			if !ok {
				fmt.Fprintln(t.out, "无效的选择")
				continue
			}
			t.show(turn)
		}
	}
}

func (t *terminal) autoplay(ctx context.Context, cfg config.Config) {
	if !t.resume(ctx, false) {
		g := character.GenderFemale
		if t.rng.Float64() > 0.5 {
			g = character.GenderMale
		}
		t.show(t.sess.Start("", g, character.FamilyType(t.rng.Intn(4))))
	}

	r := &engine.Runner{
		Session:  t.sess,
		Interval: cfg.Pace,
		Chooser:  engine.RandomChooser(t.rng),
		OnTurn:   t.show,
	}
	for {
		if t.sess.Character.Deceased {
			heirs := t.sess.Heirs()
			if len(heirs) == 0 {
				fmt.Fprintln(t.out, "家族血脉至此终结。")
				return
			}
			turn, _ := t.sess.Inherit(heirs[0].ID)
			t.show(turn)
		}
		if err := r.Run(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.Error("autoplay failed", "error", err)
			}
			return
		}
	}
}

// resume offers the saved game. Without confirm it loads unconditionally.
func (t *terminal) resume(ctx context.Context, confirm bool) bool {
	snap, err := t.db.LoadSnapshot(ctx)
	switch {
	case errors.Is(err, persistence.ErrNoSave):
		return false
	case errors.Is(err, engine.ErrIncompatibleSave):
		slog.Warn("ignoring saved game", "error", err)
		fmt.Fprintln(t.out, "存档版本不兼容，将开始新的人生。")
		return false
	case err != nil:
		slog.Error("failed to load saved game", "error", err)
		return false
	}

	if confirm {
		c := snap.Character
		line, ok := t.ask(ctx, fmt.Sprintf("发现%s的存档（%d岁），继续吗？[Y/n] ", c.Name, c.Age))
		if !ok || strings.EqualFold(line, "n") {
			return false
		}
	}
	if err := t.sess.Restore(snap); err != nil {
		slog.Error("failed to restore saved game", "error", err)
		return false
	}
	t.printStatus()
	if t.sess.Pending() != nil {
		t.show(t.sess.AdvanceYear())
	} else {
		t.show(engine.Turn{Age: t.sess.Character.Age})
	}
	return true
}

func (t *terminal) newGame(ctx context.Context) bool {
	name, ok := t.ask(ctx, "名字（留空随机）：")
	if !ok {
		return false
	}

	var g character.Gender
	for {
		line, ok := t.ask(ctx, "性别 [1]男 [2]女（留空随机）：")
		if !ok {
			return false
		}
		switch line {
		case "":
			g = character.GenderFemale
			if t.rng.Float64() > 0.5 {
				g = character.GenderMale
			}
		case "1":
			g = character.GenderMale
		case "2":
			g = character.GenderFemale
		default:
			parsed, valid := character.ParseGender(line)
			if !valid {
				continue
			}
			g = parsed
		}
		break
	}

	var fam character.FamilyType
	for {
		line, ok := t.ask(ctx, "家庭 [1]富裕 [2]中产 [3]普通 [4]贫困（留空随机）：")
		if !ok {
			return false
		}
		if line == "" {
			fam = character.FamilyType(t.rng.Intn(4))
			break
		}
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= 4 {
			fam = character.FamilyType(n - 1)
			break
		}
		if parsed, valid := character.ParseFamilyType(line); valid {
			fam = parsed
			break
		}
	}

	t.show(t.sess.Start(name, g, fam))
	t.printStatus()
	return true
}

// afterDeath offers the heirs or a new life. Returns false to quit.
func (t *terminal) afterDeath(ctx context.Context) bool {
	heirs := t.sess.Heirs()
	if len(heirs) == 0 {
		line, ok := t.ask(ctx, "没有在世的子女。开始新的人生？[Y/n] ")
		if !ok || strings.EqualFold(line, "n") {
			return false
		}
		return t.newGame(ctx)
	}

	fmt.Fprintln(t.out, "可以继承人生的子女：")
	for i, m := range heirs {
		fmt.Fprintf(t.out, "  [%d] %s（%s）\n", i+1, m.Name, m.Gender)
	}
	for {
		line, ok := t.ask(ctx, "选择继承人，n 开始新的人生，q 退出：")
		if !ok || line == "q" {
			return false
		}
		if line == "n" {
			return t.newGame(ctx)
		}
		idx, err := strconv.Atoi(line)
		if err != nil || idx < 1 || idx > len(heirs) {
			continue
		}
		if turn, ok := t.sess.Inherit(heirs[idx-1].ID); ok {
			t.show(turn)
			t.printStatus()
			return true
		}
	}
}

func (t *terminal) printTurn(turn engine.Turn) {
	p := turn.Present
	if p == nil && len(turn.Messages) == 0 {
		return
	}

	fmt.Fprintf(t.out, "\n── %d岁 ──\n", turn.Age)
	if p != nil {
		fmt.Fprintf(t.out, "【%s】%s\n", p.Title, p.Description)
	}
	for _, m := range turn.Messages {
		if p != nil && m.Title == p.Title {
			continue
		}
		fmt.Fprintf(t.out, "  · %s：%s\n", m.Title, m.Description)
	}

	if changes := turn.Changes(); len(changes) > 0 {
		keys := make([]string, 0, len(changes))
		for k := range changes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s%+d", attributeLabels[k], changes[k]))
		}
		fmt.Fprintf(t.out, "  %s\n", strings.Join(parts, " "))
	}

	if turn.AwaitingChoice() {
		for i, c := range p.Choices {
			fmt.Fprintf(t.out, "  [%d] %s\n", i+1, c)
		}
	}
	if turn.Died && turn.Summary != nil {
		fmt.Fprintf(t.out, "\n%s\n", turn.Summary)
	}
}

func (t *terminal) printStatus() {
	c := t.sess.Character
	if c == nil {
		return
	}
	occupation := c.Occupation
	if occupation == "" {
		occupation = "无"
	}
	fmt.Fprintf(t.out, "%s（%s，%s家庭）%d岁 %s\n", c.Name, c.Gender, c.FamilyType, c.Age, c.Stage())
	fmt.Fprintf(t.out, "  智商 %d  情商 %d  健康 %d/%d  道德 %d  社交 %d  运气 %d\n",
		c.IQ, c.EQ, c.Health, c.HealthMax, c.Moral, c.Social, c.Luck)
	fmt.Fprintf(t.out, "  金钱 %s元（收入倍率 %.2f）  职业 %s  学历 %s\n",
		humanize.Comma(int64(c.Money)), c.MoneyRate, occupation, c.Education)
	fmt.Fprintf(t.out, "  房产 %s  车辆 %s", c.Assets[character.AssetHouse], c.Assets[character.AssetCar])
	if c.Spouse != nil {
		fmt.Fprintf(t.out, "  配偶 %s", c.Spouse.Name)
	}
	fmt.Fprintf(t.out, "  子女 %d\n", len(c.Children))
	if len(c.Talents) > 0 {
		names := make([]string, len(c.Talents))
		for i, tal := range c.Talents {
			names[i] = tal.Name
		}
		fmt.Fprintf(t.out, "  天赋 %s\n", strings.Join(names, "、"))
	}
	if len(c.Achievements) > 0 {
		fmt.Fprintf(t.out, "  成就 %s\n", strings.Join(c.Achievements, "、"))
	}
}

func (t *terminal) printLifeLog() {
	for _, e := range t.sess.Character.RecentEvents(10) {
		fmt.Fprintf(t.out, "  %d岁（%s）%s\n", e.Age, e.Stage, e.Description)
	}
}

func (t *terminal) printDecisions() {
	for _, d := range t.sess.Character.Decisions {
		fmt.Fprintf(t.out, "  %d岁 %s → %s\n", d.Age, d.Event, d.Choice)
	}
}

func (t *terminal) printTree() {
	t.sess.Family.Walk(func(m *family.Member, depth int) {
		status := "在世"
		if m.Dead() {
			status = fmt.Sprintf("享年%d岁", *m.Lifespan)
		}
		line := fmt.Sprintf("%s%s（%s）%s", strings.Repeat("  ", depth), m.Name, m.Gender, status)
		if m.Spouse != "" {
			line += "，配偶" + m.Spouse
		}
		if m.ID == t.sess.Character.ID {
			line += " ←"
		}
		fmt.Fprintln(t.out, line)
	})
}
