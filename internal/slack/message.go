// Package slack renders normalized Sentry events into Slack Block Kit
// messages. Rendering is pure: the same event, style and occurrence
// count always produce the same block sequence.
package slack

// Message is the JSON body posted to a Slack incoming webhook.
type Message struct {
	Blocks []Block `json:"blocks"`
}

// Block is a single Block Kit block. A header carries plain text; a
// section carries either one mrkdwn text or a short list of fields.
type Block struct {
	Type   string `json:"type"`
	Text   *Text  `json:"text,omitempty"`
	Fields []Text `json:"fields,omitempty"`
}

// Text is a Block Kit text object.
type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Header builds a plain-text header block.
func Header(text string) Block {
	return Block{
		Type: "header",
		Text: &Text{Type: "plain_text", Text: text, Emoji: true},
	}
}

// Section builds a section block with one mrkdwn text span.
func Section(md string) Block {
	return Block{
		Type: "section",
		Text: &Text{Type: "mrkdwn", Text: md},
	}
}

// FieldSection builds a section block from label/value fields.
func FieldSection(fields ...Text) Block {
	return Block{Type: "section", Fields: fields}
}

// Field formats a label/value pair as one mrkdwn field.
func Field(label, value string) Text {
	return Text{Type: "mrkdwn", Text: "*" + label + ":*\n" + value}
}
