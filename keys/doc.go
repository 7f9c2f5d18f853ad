// Package keys owns the RSA keypair an issuer signs tokens with.
//
// A [Keypair] is built once at startup and then only read. The private half
// never leaves the process except through an operator-supplied PEM file
// (see [LoadOrGenerate]). The public half is published with
// [Keypair.PublicKeyExport] as base64 SPKI/DER and turned back into a verify
// key by [DecodePublicKey].
package keys
