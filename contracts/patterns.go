package contracts

// Destination names one durable queue owned by a logical service. Queues
// are declared durable at process startup and survive broker restarts.
type Destination string

const (
	DestAuth     Destination = "auth"
	DestNews     Destination = "news"
	DestComments Destination = "comments"
	DestFiles    Destination = "files"
	DestLogger   Destination = "logger"
)

// Queue returns the broker queue name for the destination.
func (d Destination) Queue() string { return string(d) }

// Auth destination patterns.
const (
	PatternRegister            = "register"
	PatternLogin               = "login"
	PatternGetAllUsers         = "get-all-users"
	PatternSearchUsers         = "search-users"
	PatternGetUserByID         = "get-user-by-id"
	PatternGetUsersByIDs       = "get-users-by-ids"
	PatternGetShortUserInfo    = "get-short-user-info-by-id"
	PatternGetUserProfile      = "get-user-profile"
	PatternUserSubscriptions   = "user-subscriptions"
	PatternUpdateUserProfile   = "update-user-profile"
	PatternUpdateUserAvatar    = "update-user-avatar"
	PatternSubscribeOnUser     = "subscribe-on-user"
	PatternDeleteUser          = "delete-user" // event
)

// News destination patterns.
const (
	PatternCreateNews            = "create-news" // event
	PatternFindAllNews           = "find-all-news"
	PatternSearchNews            = "search-news"
	PatternFindOneNews           = "find-one-news"
	PatternUserSubscriptionsNews = "user-subscriptions-news"
	PatternUpdateNews            = "update-news"
	PatternDeleteNews            = "delete-news"
)

// Comments destination patterns.
const (
	PatternCreateComment    = "create-comment"
	PatternFindAllComments  = "find-all-comments"
	PatternFindNewsComments = "find-news-comments"
	PatternFindCommentByID  = "find-comment-by-id"
	PatternUpdateComment    = "update-comment"
	PatternDeleteComment    = "delete-comment"
)

// Files destination patterns.
const (
	PatternCreateFiles           = "create-files" // event
	PatternGetFilesByNewsID      = "get-files-by-news-id"
	PatternGetFilesByNewsIDsList = "get-files-by-news-ids-list"
	PatternUpdateFiles           = "update-files"
	PatternDeleteFiles           = "delete-files" // event
)

// Logger destination patterns.
const (
	PatternCreateLog  = "create-log" // event
	PatternGetAllLogs = "get-all-logs"
	PatternClearLogs  = "clear-logs" // event
)
