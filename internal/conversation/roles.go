package conversation

import "github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"

// Agent roles the backend uses for its speakers.
const (
	RoleUserProxy    = "用户代理"
	RoleAnalyst      = "关系分析师"
	RoleEntityExpert = "实体专家"
	RoleVisualizer   = "图表可视化师"
	RoleSummarizer   = "总结专家"
)

// RoleDisplay is how a speaker is shown next to its messages.
type RoleDisplay struct {
	Label  string `json:"label"`
	Avatar string `json:"avatar,omitempty"`
	Color  string `json:"color"`
	AI     bool   `json:"ai"`
}

var roleDisplays = map[string]RoleDisplay{
	common.RoleUser:   {Label: "用户", Color: "#1890ff"},
	RoleUserProxy:     {Label: RoleUserProxy, Color: "#1890ff", AI: true},
	common.RoleSystem: {Label: common.RoleSystem, Color: "#52c41a"},
	RoleAnalyst:       {Label: RoleAnalyst, Avatar: "关系", Color: "#f56a00", AI: true},
	RoleEntityExpert:  {Label: RoleEntityExpert, Avatar: "实体", Color: "#7265e6", AI: true},
	RoleVisualizer:    {Label: RoleVisualizer, Avatar: "图表", Color: "#ffbf00", AI: true},
	RoleSummarizer:    {Label: RoleSummarizer, Avatar: "总结", Color: "#00a2ae", AI: true},
}

// DisplayFor returns the display of role. Unknown roles are agents.
func DisplayFor(role string) RoleDisplay {
	if d, ok := roleDisplays[role]; ok {
		return d
	}
	return RoleDisplay{Label: role, Color: "#52c41a", AI: true}
}

// MessageView is a message together with its speaker display.
type MessageView struct {
	common.Message
	Display RoleDisplay `json:"display"`
}

// Decorate attaches the speaker display to every message.
func Decorate(messages []common.Message) []MessageView {
	out := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		out = append(out, MessageView{Message: m, Display: DisplayFor(m.Role)})
	}
	return out
}
