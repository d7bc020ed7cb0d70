package workflow

// ActorKind 操作者类型枚举
type ActorKind string

const (
	// ActorKindHuman 人工操作者（UI操作）
	ActorKindHuman ActorKind = "human"
	// ActorKindSystem 系统操作者（批处理自动操作）
	ActorKindSystem ActorKind = "system"
)

// Actor 操作者（对外导出）
// 用Human/System两个变体代替保留的"系统用户ID"魔法值
type Actor struct {
	Kind   ActorKind
	UserID string // Kind为human时必填，system时为空
}

// HumanActor 创建人工操作者
func HumanActor(userID string) Actor {
	return Actor{Kind: ActorKindHuman, UserID: userID}
}

// SystemActor 系统操作者（批处理使用）
var SystemActor = Actor{Kind: ActorKindSystem}

// IsSystem 是否为系统操作者
func (a Actor) IsSystem() bool {
	return a.Kind == ActorKindSystem
}

// String 操作者的展示形式（历史记录用）
func (a Actor) String() string {
	if a.IsSystem() {
		return "system"
	}
	return a.UserID
}
