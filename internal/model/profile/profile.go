package profile

import "fmt"

// Profile 描述前端可选的对话配置，每个配置绑定一个底层大模型。
type Profile struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	MarkdownDescription string `json:"markdownDescription"`
	Icon                string `json:"icon"`
	Model               string `json:"model"`
}

// OpeningLine 是会话开始时发送给用户的提示。
func (p Profile) OpeningLine() string {
	return fmt.Sprintf("starting chat using the %s chat profile", p.Name)
}

// Seed returns the default chat profiles.
func Seed() []Profile {
	return []Profile{
		newProfile("qwen3-4b-instruct-2507", "https://picsum.photos/200"),
		newProfile("qwen/qwen3-8b", "https://picsum.photos/250"),
		newProfile("phi-4-mini-instruct", "https://picsum.photos/250"),
		newProfile("qwen/qwen3-14b", "https://picsum.photos/250"),
	}
}

func newProfile(model, icon string) Profile {
	return Profile{
		ID:                  model,
		Name:                model,
		MarkdownDescription: fmt.Sprintf("The underlying LLM model is **%s**.", model),
		Icon:                icon,
		Model:               model,
	}
}
