// Package fakes provides test doubles for the source client interfaces.
//
// Fakes are manually implemented (not generated) so tests keep precise
// control over behavior. Each fake stores its data in memory and can be
// configured to return specific values or errors per reference.
//
// Usage:
//
//	fake := fakes.NewFakeSecretsManagerClient()
//	fake.AddSecretString("prod/db", `{"username":"app"}`)
//	src, err := sources.NewSecretsManagerSource(opts,
//	    sources.WithSecretsManagerClient(fake))
package fakes
