// Package token manages signed access and refresh credential issuance and
// verification using two independent HMAC secrets and strict validation
// semantics suitable for low-latency authentication paths.
package token
