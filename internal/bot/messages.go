package bot

// User-facing texts
const (
	MsgSelectFormat      = "Select format:"
	MsgSelectQuality     = "Select quality:"
	MsgLinkExpired       = "Link expired. Please send the link again."
	MsgSelectionExpired  = "Selection expired. Please send the link again."
	MsgInvalidFormat     = "Invalid format selection."
	MsgInvalidQuality    = "Invalid quality selection."
	MsgInvalidPick       = "Invalid selection."
	MsgDownloadStarted   = "Downloading started..."
	MsgDownloadFailed    = "Downloading failed!"
	MsgDownloadCancelled = "Download cancelled."
	MsgAlreadyRunning    = "A download is already running. Send /cancel to stop it."
	MsgCompressing       = "Compressing..."
	MsgTooLarge          = "File is too large to upload."
	MsgUploading         = "Uploading to telegram..."
	MsgUploadFailed      = "Uploading failed!"
	MsgFetchingPlaylist  = "Fetching playlist..."
	MsgPickVideo         = "Pick a video:"
	MsgPlaylistFailed    = "Could not read the playlist."
	MsgTryAgain          = "Something went wrong. Please try again."
	MsgCancelling        = "Cancelling download..."
	MsgSelectionCleared  = "Selection cleared."
	MsgNothingToCancel   = "Nothing to cancel."
	MsgHelp              = "Send me a YouTube link and pick Audio or Video.\n" +
		"Video comes in 480p, 720p or 1080p.\n" +
		"/cancel stops the current download."
)
