// Package storage places export files.
//
// Manager owns the local output directory. Files are written to a temporary
// name and renamed into place so a crashed run never leaves half a file.
// OutputName builds the "{username}_{slug}.{ext}" names the exporters use.
//
// ObjectStore uploads the same documents to an S3 compatible bucket through
// minio-go when an endpoint is configured.
package storage
