// Package journals provides the persistence layer for journal entries kept
// in the local store.
//
// # Overview
//
// Repository describes the queries the sync layer needs. Two implementations
// exist: SQLiteRepository (the default on-device cache) and
// PostgresRepository (a shared desktop cache). Both run over a dbx.DBTX so
// they can be bound to a *sql.DB or to a transaction.
//
// # Data Model
//
// A row holds the user visible fields of a models.Journal, its owner
// (user_id, the query scope), the creation time in unix milliseconds and the
// synced flag. Optional fields (image_url, latitude/longitude) are NULL when
// absent.
//
// Typical Usage
//
//	repo := journals.NewSQLiteRepository(db)
//	_ = repo.Upsert(ctx, j)
//	list, _ := repo.ListByUser(ctx, userID)
//	one, _ := repo.GetByID(ctx, id)
//	pending, _ := repo.ListUnsynced(ctx, userID)
//	_ = repo.DeleteByID(ctx, id)
package journals
