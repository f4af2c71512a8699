package event

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type CallEventType string

const (
	CallIncoming CallEventType = "INCOMING_CALL"
	CallOutgoing CallEventType = "OUTGOING_EVENT"
	CallAnswered CallEventType = "ANSWERED"
	CallEnded    CallEventType = "CALL_END"
	CallStatus   CallEventType = "STATUS_UPDATE"
)

type ContentType string

const (
	ContentText     ContentType = "text"
	ContentImage    ContentType = "image"
	ContentVideo    ContentType = "video"
	ContentAudio    ContentType = "audio"
	ContentDocument ContentType = "document"
	ContentUnknown  ContentType = "unknown"
)

type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// CallEvent is the canonical shape of a voice-provider pingback. Raw keeps
// the original payload untouched; the console front-end dispatches on the
// original provider field names.
type CallEvent struct {
	CallID       string            `json:"call_id"`
	CallerNumber string            `json:"caller_number"`
	CalleeNumber string            `json:"callee_number"`
	EventType    CallEventType     `json:"event_type"`
	Timestamp    time.Time         `json:"timestamp"`
	DTMFDigits   string            `json:"dtmf_digits,omitempty"`
	AgentNumber  string            `json:"agent_number,omitempty"`
	Raw          map[string]string `json:"raw,omitempty"`
}

// InboundMessage is the canonical shape of a messaging-provider webhook entry.
type InboundMessage struct {
	MessageID     string            `json:"message_id"`
	From          string            `json:"from"`
	To            string            `json:"to"`
	ContentType   ContentType       `json:"content_type"`
	Content       string            `json:"content"`
	MediaURL      string            `json:"media_url,omitempty"`
	MediaFilename string            `json:"media_filename,omitempty"`
	MediaCaption  string            `json:"media_caption,omitempty"`
	Direction     Direction         `json:"direction"`
	Raw           map[string]string `json:"-"`
}

// Suppressed reports whether the message duplicates content already shown
// inline in a template and must be dropped before persistence and broadcast.
func (m *InboundMessage) Suppressed() bool {
	return strings.Contains(m.MediaFilename, "template_header")
}

// Provider field aliases per canonical field, probed in order. Adding a new
// provider is a data change here, not new branching logic.
var (
	callIDAliases      = []string{"CALL_ID", "call_id", "callid", "call_uuid", "uuid", "CallSid", "session_id"}
	callerAliases      = []string{"A_PARTY_NO", "aparty", "from", "caller", "ani", "caller_id", "a_party_number"}
	calleeAliases      = []string{"B_PARTY_NO", "bparty", "to", "callee", "dnis", "called_number", "b_party_number"}
	eventTypeAliases   = []string{"type", "event", "event_type", "call_status", "status", "state"}
	timestampAliases   = []string{"timestamp", "time", "event_time", "date_time", "datetime"}
	dtmfAliases        = []string{"dtmf", "digits", "dtmf_digits", "pressed_digit"}
	agentNumberAliases = []string{"agent_number", "AGENT_NO", "agent", "agent_no", "operator_number"}

	messageIDAliases = []string{"id", "message_id", "msg_id", "msgId", "wamid"}
	msgFromAliases   = []string{"from", "sender", "wa_id", "waid", "source"}
	msgToAliases     = []string{"to", "recipient", "destination", "display_phone_number"}
	msgTypeAliases   = []string{"type", "message_type", "content_type"}
	msgBodyAliases   = []string{"body", "text", "message", "content"}
	mediaURLAliases  = []string{"media_url", "url", "link", "file_url"}
	mediaNameAliases = []string{"filename", "media_filename", "file_name"}
	captionAliases   = []string{"caption", "media_caption"}
	directionAliases = []string{"direction", "dir"}
)

// Event-type classification vocabulary, matched case-insensitively in fixed
// priority order. A string matching several buckets resolves to the first.
var eventTypeRules = []struct {
	keywords []string
	result   CallEventType
}{
	{[]string{"incoming", "inbound"}, CallIncoming},
	{[]string{"outgoing", "outbound", "originate", "click"}, CallOutgoing},
	{[]string{"connected", "answered", "answer", "bridge"}, CallAnswered},
	{[]string{"end", "disconnect", "hangup", "complete"}, CallEnded},
}

// firstAlias returns the first alias with a non-empty value in raw.
func firstAlias(raw map[string]string, aliases []string) string {
	for _, a := range aliases {
		if v, ok := raw[a]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// ClassifyEventType maps a provider event-type string onto the canonical
// enum. Unknown vocabulary falls through to the generic status bucket.
func ClassifyEventType(raw string) CallEventType {
	s := strings.ToLower(raw)
	for _, rule := range eventTypeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(s, kw) {
				return rule.result
			}
		}
	}
	return CallStatus
}

// NormalizeCall maps an arbitrary flat pingback payload onto a CallEvent.
// Unknown providers degrade to empty fields rather than failing.
func NormalizeCall(raw map[string]string) CallEvent {
	ev := CallEvent{
		CallID:       firstAlias(raw, callIDAliases),
		CallerNumber: firstAlias(raw, callerAliases),
		CalleeNumber: firstAlias(raw, calleeAliases),
		EventType:    ClassifyEventType(firstAlias(raw, eventTypeAliases)),
		Timestamp:    parseTimestamp(firstAlias(raw, timestampAliases)),
		DTMFDigits:   firstAlias(raw, dtmfAliases),
		AgentNumber:  firstAlias(raw, agentNumberAliases),
		Raw:          raw,
	}
	return ev
}

// NormalizeClickToCall is NormalizeCall for the click-to-call pingback
// family, whose notifications default to the outgoing bucket when the
// provider sends no event-type field at all.
func NormalizeClickToCall(raw map[string]string) CallEvent {
	ev := NormalizeCall(raw)
	if firstAlias(raw, eventTypeAliases) == "" {
		ev.EventType = CallOutgoing
	}
	return ev
}

// Validate flags missing canonical call fields. Advisory only: ingestion
// logs the errors and still persists and broadcasts the event.
func Validate(ev CallEvent) (bool, []string) {
	var errs []string
	if ev.CallID == "" {
		errs = append(errs, "missing call id")
	}
	if ev.CallerNumber == "" {
		errs = append(errs, "missing caller number")
	}
	if ev.CalleeNumber == "" {
		errs = append(errs, "missing callee number")
	}
	return len(errs) == 0, errs
}

// NormalizeMessage maps a flat messaging webhook entry onto an
// InboundMessage. A missing provider message id gets a generated one.
func NormalizeMessage(raw map[string]string) InboundMessage {
	msg := InboundMessage{
		MessageID:     firstAlias(raw, messageIDAliases),
		From:          NormalizePhone(firstAlias(raw, msgFromAliases)),
		To:            NormalizePhone(firstAlias(raw, msgToAliases)),
		ContentType:   classifyContentType(firstAlias(raw, msgTypeAliases)),
		MediaURL:      firstAlias(raw, mediaURLAliases),
		MediaFilename: firstAlias(raw, mediaNameAliases),
		MediaCaption:  firstAlias(raw, captionAliases),
		Direction:     DirectionIn,
		Raw:           raw,
	}
	if msg.MessageID == "" {
		msg.MessageID = uuid.NewString()
	}
	if strings.EqualFold(firstAlias(raw, directionAliases), string(DirectionOut)) {
		msg.Direction = DirectionOut
	}
	if msg.ContentType == ContentText {
		msg.Content = firstAlias(raw, msgBodyAliases)
	} else {
		msg.Content = fmt.Sprintf("[%s message]", msg.ContentType)
	}
	return msg
}

func classifyContentType(raw string) ContentType {
	switch strings.ToLower(raw) {
	case "", "text", "chat":
		return ContentText
	case "image", "sticker":
		return ContentImage
	case "video":
		return ContentVideo
	case "audio", "voice", "ptt":
		return ContentAudio
	case "document", "file":
		return ContentDocument
	default:
		return ContentUnknown
	}
}

// NormalizePhone reduces a phone number to digits, prefixes the 91 country
// code when absent and prepends a literal plus.
func NormalizePhone(s string) string {
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if d == "" {
		return ""
	}
	if !strings.HasPrefix(d, "91") {
		d = "91" + d
	}
	return "+" + d
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02-01-2006 15:04:05",
}

// parseTimestamp accepts the handful of formats seen from providers and
// falls back to ingestion time. Provider clocks are not trusted to be
// synchronized; ordering is by arrival, never by this value.
func parseTimestamp(s string) time.Time {
	if s != "" {
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Now().UTC()
}
