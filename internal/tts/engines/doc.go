// Package engines contains the speech synthesis backends: AWS Polly,
// espeak, Google Cloud Text-to-Speech and a TTS server on localhost.
// Each backend implements ttypes.Synthesizer and writes its audio into
// the content-addressed artifact store.
package engines
