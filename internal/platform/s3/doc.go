// Package s3 stores manifest releases in S3-compatible object storage such
// as Hetzner Object Storage.
//
// Client is a thin bucket-scoped wrapper over the AWS SDK. Store keeps one
// immutable object per pushed manifest under <app>/releases/, named by push
// time and content digest, so the history of an app can be listed, fetched
// and compared.
package s3
