// Package protocol builds ActiveSync command bodies and parses their
// responses.
//
// Builders return a complete WBXML document ready to post. Parsers take
// the response body and return plain result structs; they never touch
// storage, so the engine decides what a status means. Parsers skip
// elements they do not understand.
package protocol

// Command names as sent in the Cmd query parameter.
const (
	CmdFolderSync      = "FolderSync"
	CmdSync            = "Sync"
	CmdPing            = "Ping"
	CmdMoveItems       = "MoveItems"
	CmdGetItemEstimate = "GetItemEstimate"
	CmdSendMail        = "SendMail"
	CmdSmartReply      = "SmartReply"
	CmdSmartForward    = "SmartForward"
	CmdGetAttachment   = "GetAttachment"
)
