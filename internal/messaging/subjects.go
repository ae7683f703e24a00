package messaging

import "github.com/pixil98/go-idle/internal/game"

const (
	SubjectNotifyPrefix    = "idle.notify."
	SubjectIntentClick     = "idle.intent.click"
	SubjectIntentBuy       = "idle.intent.buy"
	SubjectIntentCollect   = "idle.intent.collect"
	SubjectIntentPrestige  = "idle.intent.prestige"
	SubjectState           = "idle.state"
	prestigeConfirmPayload = "confirm"
)

// NotifySubject is the subject notifications of kind are published on.
func NotifySubject(kind game.NotificationKind) string {
	return SubjectNotifyPrefix + string(kind)
}
