// Package audio plays synthesized artifacts through the system audio device
// using oto/v3. It decodes MP3 and WAV artifacts, converts them to the
// device format, and reports the end of each artifact to subscribers.
package audio
