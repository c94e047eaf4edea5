package digest

// Display caps per channel.
const (
	TelegramDisplayCap = 10
	EmailDisplayCap    = 15
)

const (
	// DigestSeparatorLine frames the Telegram header.
	DigestSeparatorLine = "━━━━━━━━━━━━━━━━━━━━\n"

	subjectWithEvents = "Your upcoming events"
	subjectNoEvents   = "No matching events this time"

	nothingMatchedText = "Nothing matched your preferences this time. We will keep looking and write again with your next digest."

	dateFormatDay     = "Mon, 2 Jan 2006"
	dateFormatDayTime = "Mon, 2 Jan 2006 15:04"

	defaultRecipientName = "there"
	linkLabel            = "Details"
)
