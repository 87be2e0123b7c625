package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/talgya/lifesim/internal/character"
	"github.com/talgya/lifesim/internal/engine"
)

// keyMoments caps how much of the life log goes into the prompt.
const keyMoments = 12

const eulogySystem = `你是一位擅长写悼词的作家。根据给出的人生经历，用中文写一段150到250字的悼词，语气温和真挚，提到此人的职业、家庭和重要抉择。不要提及游戏或模拟。`

// EulogyPrompt renders a finished life as prompt text.
func EulogyPrompt(sum engine.Summary, c *character.Character) string {
	var b strings.Builder
	fmt.Fprintf(&b, "姓名：%s（%s）\n", sum.Name, sum.Gender)
	fmt.Fprintf(&b, "享年：%d岁，家族第%d代\n", sum.Age, sum.Generation)
	fmt.Fprintf(&b, "职业：%s，学历：%s\n", sum.Occupation, sum.Education)
	fmt.Fprintf(&b, "遗产：%d元，子女%d人\n", sum.Estate, sum.Children)
	if sum.Spouse != "" {
		fmt.Fprintf(&b, "配偶：%s\n", sum.Spouse)
	}
	if len(sum.Achievements) > 0 {
		names := make([]string, len(sum.Achievements))
		for i, a := range sum.Achievements {
			names[i] = a.ID
		}
		fmt.Fprintf(&b, "成就：%s\n", strings.Join(names, "、"))
	}

	if c != nil {
		if len(c.Decisions) > 0 {
			b.WriteString("重要抉择：\n")
			for _, d := range c.Decisions {
				fmt.Fprintf(&b, "- %d岁，%s：%s\n", d.Age, d.Event, d.Choice)
			}
		}
		if moments := c.RecentEvents(keyMoments); len(moments) > 0 {
			b.WriteString("晚年经历：\n")
			for i := len(moments) - 1; i >= 0; i-- {
				fmt.Fprintf(&b, "- %d岁：%s\n", moments[i].Age, moments[i].Description)
			}
		}
	}
	return b.String()
}

// GenerateEulogy asks the model for a short eulogy of a finished life.
func GenerateEulogy(ctx context.Context, client *Client, sum engine.Summary, c *character.Character) (string, error) {
	if !client.Enabled() {
		return "", ErrDisabled
	}
	text, err := client.Complete(ctx, eulogySystem, EulogyPrompt(sum, c), 500)
	if err != nil {
		return "", fmt.Errorf("generate eulogy: %w", err)
	}
	return strings.TrimSpace(text), nil
}
