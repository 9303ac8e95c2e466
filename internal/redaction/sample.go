package redaction

// SampleDocument is a short incident report containing one entity of most
// types. The CLI and the demo use it when no input is given.
const SampleDocument = `Subject: Security Incident Report - 2023-10-27

From: sarah.connor@cyberdyne.net
To: john.smith@techcorp.com

An unauthorized access attempt was detected from IP address 192.168.1.45 at 14:30 EST.

Contact Officer: John Smith at (555) 019-2834 immediately.`
