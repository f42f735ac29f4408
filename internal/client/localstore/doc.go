// Package localstore is the device-side cache of journals and notifications.
//
// It is the only data source observers read from. Reads are exposed as
// reactive queries: a channel that receives a fresh snapshot every time the
// underlying rows change, until the caller tears the subscription down.
// Storage errors are returned unchanged and are not recovered here.
package localstore
