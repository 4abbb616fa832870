package platform

// Package platform contains OS and external tooling glue: filesystem helpers
// for yt-dlp output, Telegram thumbnail preparation and playlist listing.
