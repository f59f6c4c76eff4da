// Package migrations renders the partition DDL shared by every adapter.
//
// Adapters use Dialect to build their CREATE/INSERT/SELECT statements, and the
// provisioner creates partitions at runtime with the same DDL. Teams that
// prefer managed migrations can generate the full script instead:
//
//	go run github.com/getpup/pupcommits/cmd/migrate-gen -adapter postgres -bounded-contexts Collaboration,Billing
//
// Or add a go generate directive to your code:
//
//	//go:generate go run github.com/getpup/pupcommits/cmd/migrate-gen -output ../../migrations
package migrations
