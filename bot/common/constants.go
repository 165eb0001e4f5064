package common

// Discord color constants
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x57F287 // Green
	ColorError   = 0xED4245 // Red
	ColorWarning = 0xFEE75C // Yellow
	ColorWordle  = 0x6AAA64 // Wordle correct-tile green
)

// MaxEmbedDescription is Discord's limit on an embed description
const MaxEmbedDescription = 4096
