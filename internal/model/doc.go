package model

// Package model defines domain data structures shared by the bot: per-chat
// selections, download tasks, media results, playlist entries and status
// enums. Structures carry explicit state transitions and JSON tags where they
// are persisted in the session store.
