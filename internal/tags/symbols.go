package tags

// AirSync page.
var (
	SyncSync            = mustTag(AirSync, "Sync")
	SyncResponses       = mustTag(AirSync, "Responses")
	SyncAdd             = mustTag(AirSync, "Add")
	SyncChange          = mustTag(AirSync, "Change")
	SyncDelete          = mustTag(AirSync, "Delete")
	SyncFetch           = mustTag(AirSync, "Fetch")
	SyncSyncKey         = mustTag(AirSync, "SyncKey")
	SyncClientID        = mustTag(AirSync, "ClientId")
	SyncServerID        = mustTag(AirSync, "ServerId")
	SyncStatus          = mustTag(AirSync, "Status")
	SyncCollection      = mustTag(AirSync, "Collection")
	SyncClass           = mustTag(AirSync, "Class")
	SyncCollectionID    = mustTag(AirSync, "CollectionId")
	SyncGetChanges      = mustTag(AirSync, "GetChanges")
	SyncMoreAvailable   = mustTag(AirSync, "MoreAvailable")
	SyncWindowSize      = mustTag(AirSync, "WindowSize")
	SyncCommands        = mustTag(AirSync, "Commands")
	SyncOptions         = mustTag(AirSync, "Options")
	SyncFilterType      = mustTag(AirSync, "FilterType")
	SyncTruncation      = mustTag(AirSync, "Truncation")
	SyncCollections     = mustTag(AirSync, "Collections")
	SyncApplicationData = mustTag(AirSync, "ApplicationData")
	SyncDeletesAsMoves  = mustTag(AirSync, "DeletesAsMoves")
	SyncSoftDelete      = mustTag(AirSync, "SoftDelete")
)

// Email page.
var (
	EmailAttachment   = mustTag(Email, "Attachment")
	EmailAttachments  = mustTag(Email, "Attachments")
	EmailAttName      = mustTag(Email, "AttName")
	EmailAttSize      = mustTag(Email, "AttSize")
	EmailAtt0ID       = mustTag(Email, "Att0Id")
	EmailAttMethod    = mustTag(Email, "AttMethod")
	EmailBody         = mustTag(Email, "Body")
	EmailBodySize     = mustTag(Email, "BodySize")
	EmailBodyTrunc    = mustTag(Email, "BodyTruncated")
	EmailDateReceived = mustTag(Email, "DateReceived")
	EmailDisplayName  = mustTag(Email, "DisplayName")
	EmailDisplayTo    = mustTag(Email, "DisplayTo")
	EmailImportance   = mustTag(Email, "Importance")
	EmailMessageClass = mustTag(Email, "MessageClass")
	EmailSubject      = mustTag(Email, "Subject")
	EmailRead         = mustTag(Email, "Read")
	EmailTo           = mustTag(Email, "To")
	EmailCc           = mustTag(Email, "Cc")
	EmailFrom         = mustTag(Email, "From")
	EmailReplyTo      = mustTag(Email, "ReplyTo")
	EmailThreadTopic  = mustTag(Email, "ThreadTopic")
	EmailMIMEData     = mustTag(Email, "MIMEData")
	EmailInternetCPID = mustTag(Email, "InternetCPID")
	EmailFlag         = mustTag(Email, "Flag")
	EmailFlagStatus   = mustTag(Email, "FlagStatus")
)

// Move page.
var (
	MoveMoveItems = mustTag(Move, "MoveItems")
	MoveMove      = mustTag(Move, "Move")
	MoveSrcMsgID  = mustTag(Move, "SrcMsgId")
	MoveSrcFldID  = mustTag(Move, "SrcFldId")
	MoveDstFldID  = mustTag(Move, "DstFldId")
	MoveResponse  = mustTag(Move, "Response")
	MoveStatus    = mustTag(Move, "Status")
	MoveDstMsgID  = mustTag(Move, "DstMsgId")
)

// GetItemEstimate page.
var (
	GIEGetItemEstimate = mustTag(GetItemEstimate, "GetItemEstimate")
	GIECollections     = mustTag(GetItemEstimate, "Collections")
	GIECollection      = mustTag(GetItemEstimate, "Collection")
	GIEClass           = mustTag(GetItemEstimate, "Class")
	GIECollectionID    = mustTag(GetItemEstimate, "CollectionId")
	GIEEstimate        = mustTag(GetItemEstimate, "Estimate")
	GIEResponse        = mustTag(GetItemEstimate, "Response")
	GIEStatus          = mustTag(GetItemEstimate, "Status")
)

// FolderHierarchy page.
var (
	FolderFolders     = mustTag(FolderHierarchy, "Folders")
	FolderFolder      = mustTag(FolderHierarchy, "Folder")
	FolderDisplayName = mustTag(FolderHierarchy, "DisplayName")
	FolderServerID    = mustTag(FolderHierarchy, "ServerId")
	FolderParentID    = mustTag(FolderHierarchy, "ParentId")
	FolderType        = mustTag(FolderHierarchy, "Type")
	FolderStatus      = mustTag(FolderHierarchy, "Status")
	FolderChanges     = mustTag(FolderHierarchy, "Changes")
	FolderAdd         = mustTag(FolderHierarchy, "Add")
	FolderDelete      = mustTag(FolderHierarchy, "Delete")
	FolderUpdate      = mustTag(FolderHierarchy, "Update")
	FolderSyncKey     = mustTag(FolderHierarchy, "SyncKey")
	FolderFolderSync  = mustTag(FolderHierarchy, "FolderSync")
	FolderCount       = mustTag(FolderHierarchy, "Count")
)

// Ping page.
var (
	PingPing              = mustTag(Ping, "Ping")
	PingStatus            = mustTag(Ping, "Status")
	PingHeartbeatInterval = mustTag(Ping, "HeartbeatInterval")
	PingFolders           = mustTag(Ping, "Folders")
	PingFolder            = mustTag(Ping, "Folder")
	PingID                = mustTag(Ping, "Id")
	PingClass             = mustTag(Ping, "Class")
	PingMaxFolders        = mustTag(Ping, "MaxFolders")
)
