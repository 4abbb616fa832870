package bot

// Package bot is the Telegram front-end: it classifies updates, keeps the
// per-chat selection in the session store and drives the download, compress
// and upload pipeline while editing a single status message.
