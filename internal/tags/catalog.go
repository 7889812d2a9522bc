package tags

// pageTable holds the ordered tag names of one code page. Index i names
// tag code i+FirstCode.
type pageTable struct {
	name  string
	names []string
}

// catalog is the static registry of EAS code pages. It is never written
// after package initialization.
var catalog = map[Page]pageTable{
	AirSync: {"AirSync", []string{
		"Sync", "Responses", "Add", "Change", "Delete", "Fetch", "SyncKey",
		"ClientId", "ServerId", "Status", "Collection", "Class", "Version",
		"CollectionId", "GetChanges", "MoreAvailable", "WindowSize",
		"Commands", "Options", "FilterType", "Truncation", "RtfTruncation",
		"Conflict", "Collections", "ApplicationData", "DeletesAsMoves",
		"NotifyGUID", "Supported", "SoftDelete", "MIMESupport",
		"MIMETruncation", "Wait", "Limit", "Partial", "ConversationMode",
		"MaxItems", "HeartbeatInterval",
	}},
	Contacts: {"Contacts", []string{
		"Anniversary", "AssistantName", "AssistantPhoneNumber", "Birthday",
		"Body", "BodySize", "BodyTruncated", "Business2PhoneNumber",
		"BusinessAddressCity", "BusinessAddressCountry",
		"BusinessAddressPostalCode", "BusinessAddressState",
		"BusinessAddressStreet", "BusinessFaxNumber", "BusinessPhoneNumber",
		"CarPhoneNumber", "Categories", "Category", "Children", "Child",
		"CompanyName", "Department", "Email1Address", "Email2Address",
		"Email3Address", "FileAs", "FirstName", "Home2PhoneNumber",
		"HomeAddressCity", "HomeAddressCountry", "HomeAddressPostalCode",
		"HomeAddressState", "HomeAddressStreet", "HomeFaxNumber",
		"HomePhoneNumber", "JobTitle", "LastName", "MiddleName",
		"MobilePhoneNumber", "OfficeLocation", "OtherAddressCity",
		"OtherAddressCountry", "OtherAddressPostalCode", "OtherAddressState",
		"OtherAddressStreet", "PagerNumber", "RadioPhoneNumber", "Spouse",
		"Suffix", "Title", "WebPage", "YomiCompanyName", "YomiFirstName",
		"YomiLastName", "CompressedRTF", "Picture", "Alias", "WeightedRank",
	}},
	Email: {"Email", []string{
		"Attachment", "Attachments", "AttName", "AttSize", "Att0Id",
		"AttMethod", "AttRemoved", "Body", "BodySize", "BodyTruncated",
		"DateReceived", "DisplayName", "DisplayTo", "Importance",
		"MessageClass", "Subject", "Read", "To", "Cc", "From", "ReplyTo",
		"AllDayEvent", "Categories", "Category", "DTStamp", "EndTime",
		"InstanceType", "BusyStatus", "Location", "MeetingRequest",
		"Organizer", "RecurrenceId", "Reminder", "ResponseRequested",
		"Recurrences", "Recurrence", "Recurrence_Type", "Recurrence_Until",
		"Recurrence_Occurrences", "Recurrence_Interval",
		"Recurrence_DayOfWeek", "Recurrence_DayOfMonth",
		"Recurrence_WeekOfMonth", "Recurrence_MonthOfYear", "StartTime",
		"Sensitivity", "TimeZone", "GlobalObjId", "ThreadTopic", "MIMEData",
		"MIMETruncated", "MIMESize", "InternetCPID", "Flag", "FlagStatus",
		"ContentClass", "FlagType", "CompleteTime", "DisallowNewTimeProposal",
	}},
	AirNotify: {"AirNotify", []string{
		"Notify", "Notification", "Version", "LifeTime", "DeviceInfo",
		"Enable", "Folder", "ServerId", "DeviceAddress",
		"ValidCarrierProfiles", "CarrierProfile", "Status", "Responses",
		"Devices", "Device", "Id", "Expiry", "NotifyGUID",
		"DeviceFriendlyName",
	}},
	Calendar: {"Calendar", []string{
		"TimeZone", "AllDayEvent", "Attendees", "Attendee", "Email", "Name",
		"Body", "BodyTruncated", "BusyStatus", "Categories", "Category",
		"CompressedRTF", "DtStamp", "EndTime", "Exception", "Exceptions",
		"Deleted", "ExceptionStartTime", "Location", "MeetingStatus",
		"OrganizerEmail", "OrganizerName", "Recurrence", "Type", "Until",
		"Occurrences", "Interval", "DayOfWeek", "DayOfMonth", "WeekOfMonth",
		"MonthOfYear", "Reminder", "Sensitivity", "Subject", "StartTime",
		"UID", "AttendeeStatus", "AttendeeType", "Attachment",
		"Attachments", "AttName", "AttSize", "AttOid", "AttMethod",
		"AttRemoved", "DisplayName", "DisallowNewTimeProposal",
		"ResponseRequested", "AppointmentReplyTime", "ResponseType",
		"CalendarType", "IsLeapMonth", "FirstDayOfWeek",
		"OnlineMeetingConfLink", "OnlineMeetingExternalLink",
	}},
	Move: {"Move", []string{
		"MoveItems", "Move", "SrcMsgId", "SrcFldId", "DstFldId", "Response",
		"Status", "DstMsgId",
	}},
	GetItemEstimate: {"GetItemEstimate", []string{
		"GetItemEstimate", "Version", "Collections", "Collection", "Class",
		"CollectionId", "DateTime", "Estimate", "Response", "Status",
	}},
	FolderHierarchy: {"FolderHierarchy", []string{
		"Folders", "Folder", "DisplayName", "ServerId", "ParentId", "Type",
		"Response", "Status", "ContentClass", "Changes", "Add", "Delete",
		"Update", "SyncKey", "FolderCreate", "FolderDelete", "FolderUpdate",
		"FolderSync", "Count", "Version",
	}},
	MeetingResponse: {"MeetingResponse", []string{
		"CalendarId", "CollectionId", "MeetingResponse", "RequestId",
		"Request", "Result", "Status", "UserResponse", "Version",
		"InstanceId",
	}},
	Tasks: {"Tasks", []string{
		"Body", "BodySize", "BodyTruncated", "Categories", "Category",
		"Complete", "DateCompleted", "DueDate", "UtcDueDate", "Importance",
		"Recurrence", "Type", "Start", "Until", "Occurrences", "Interval",
		"DayOfMonth", "DayOfWeek", "WeekOfMonth", "MonthOfYear",
		"Regenerate", "DeadOccur", "ReminderSet", "ReminderTime",
		"Sensitivity", "StartDate", "UtcStartDate", "Subject",
		"CompressedRTF", "OrdinalDate", "SubOrdinalDate", "CalendarType",
		"IsLeapMonth", "FirstDayOfWeek",
	}},
	ResolveRecipients: {"ResolveRecipients", []string{
		"ResolveRecipients", "Response", "Status", "Type", "Recipient",
		"DisplayName", "EmailAddress", "Certificates", "Certificate",
		"MiniCertificate", "Options", "To", "CertificateRetrieval",
		"RecipientCount", "MaxCertificates", "MaxAmbiguousRecipients",
		"CertificateCount", "Availability", "StartTime", "EndTime",
		"MergedFreeBusy", "Picture", "MaxSize", "Data", "MaxPictures",
	}},
	ValidateCert: {"ValidateCert", []string{
		"ValidateCert", "Certificates", "Certificate", "CertificateChain",
		"CheckCRL", "Status",
	}},
	Contacts2: {"Contacts2", []string{
		"CustomerId", "GovernmentId", "IMAddress", "IMAddress2",
		"IMAddress3", "ManagerName", "CompanyMainPhone", "AccountName",
		"NickName", "MMS",
	}},
	Ping: {"Ping", []string{
		"Ping", "AutdState", "Status", "HeartbeatInterval", "Folders",
		"Folder", "Id", "Class", "MaxFolders",
	}},
	Provision: {"Provision", []string{
		"Provision", "Policies", "Policy", "PolicyType", "PolicyKey", "Data",
		"Status", "RemoteWipe", "EASProvisionDoc", "DevicePasswordEnabled",
		"AlphanumericDevicePasswordRequired", "RequireStorageCardEncryption",
		"PasswordRecoveryEnabled", "DocumentBrowseEnabled",
		"AttachmentsEnabled", "MinDevicePasswordLength",
		"MaxInactivityTimeDeviceLock", "MaxDevicePasswordFailedAttempts",
		"MaxAttachmentSize", "AllowSimpleDevicePassword",
		"DevicePasswordExpiration", "DevicePasswordHistory",
		"AllowStorageCard", "AllowCamera", "RequireDeviceEncryption",
		"AllowUnsignedApplications", "AllowUnsignedInstallationPackages",
		"MinDevicePasswordComplexCharacters", "AllowWiFi",
		"AllowTextMessaging", "AllowPOPIMAPEmail", "AllowBluetooth",
		"AllowIrDA", "RequireManualSyncWhenRoaming", "AllowDesktopSync",
		"MaxCalendarAgeFilter", "AllowHTMLEmail", "MaxEmailAgeFilter",
		"MaxEmailBodyTruncationSize", "MaxEmailHTMLBodyTruncationSize",
		"RequireSignedSMIMEMessages", "RequireEncryptedSMIMEMessages",
		"RequireSignedSMIMEAlgorithm", "RequireEncryptionSMIMEAlgorithm",
		"AllowSMIMEEncryptionAlgorithmNegotiation", "AllowSMIMESoftCerts",
		"AllowBrowser", "AllowConsumerEmail", "AllowRemoteDesktop",
		"AllowInternetSharing", "UnapprovedInROMApplicationList",
		"ApplicationName", "ApprovedApplicationList", "Hash",
	}},
	Search: {"Search", []string{
		"Search", "Stores", "Store", "Name", "Query", "Options", "Range",
		"Status", "Response", "Result", "Properties", "Total", "EqualTo",
		"Value", "And", "Or", "FreeText", "SubstringOp", "DeepTraversal",
		"LongId", "RebuildResults", "LessThan", "GreaterThan", "Schema",
		"Supported", "UserName", "Password", "ConversationId", "Picture",
		"MaxSize", "MaxPictures",
	}},
	GAL: {"GAL", []string{
		"DisplayName", "Phone", "Office", "Title", "Company", "Alias",
		"FirstName", "LastName", "HomePhone", "MobilePhone", "EmailAddress",
		"Picture", "Status", "Data",
	}},
	AirSyncBase: {"AirSyncBase", []string{
		"BodyPreference", "Type", "TruncationSize", "AllOrNone", "Reserved",
		"Body", "Data", "EstimatedDataSize", "Truncated", "Attachments",
		"Attachment", "DisplayName", "FileReference", "Method", "ContentId",
		"ContentLocation", "IsInline", "NativeBodyType", "ContentType",
		"Preview", "BodyPartPreference", "BodyPart", "Status",
	}},
	ItemOperations: {"ItemOperations", []string{
		"ItemOperations", "Fetch", "Store", "Options", "Range", "Total",
		"Properties", "Data", "Status", "Response", "Version", "Schema",
		"Part", "EmptyFolderContents", "DeleteSubFolders", "UserName",
		"Password", "Move", "DstFldId", "ConversationId", "MoveAlways",
	}},
	ComposeMail: {"ComposeMail", []string{
		"SendMail", "SmartForward", "SmartReply", "SaveInSentItems",
		"ReplaceMime", "Reserved", "Source", "FolderId", "ItemId", "LongId",
		"InstanceId", "Mime", "ClientId", "Status", "AccountId",
	}},
}

// byName indexes every page by tag name. Built once from catalog.
var byName = func() map[Page]map[string]byte {
	idx := make(map[Page]map[string]byte, len(catalog))
	for page, table := range catalog {
		names := make(map[string]byte, len(table.names))
		for i, n := range table.names {
			names[n] = byte(i) + FirstCode
		}
		idx[page] = names
	}
	return idx
}()

// pageByName maps a page namespace ("AirSync", "Email", ...) to its number.
var pageByName = func() map[string]Page {
	idx := make(map[string]Page, len(catalog))
	for page, table := range catalog {
		idx[table.name] = page
	}
	return idx
}()
