package store

// SearchMessages performs a full-text search on message bodies.
// threadID restricts the search to one thread; pass 0 for all.
func (db *DB) SearchMessages(query string, threadID int64, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}

	q := `
		SELECT m.id, m.thread_id, m.address, m.body, m.timestamp,
		       m.direction, m.status, m.is_read, COALESCE(m.error_code, ''),
		       snippet(messages_fts, 0, '<<', '>>', '...', 32)
		FROM messages_fts f
		JOIN messages m ON m.id = f.rowid
		WHERE messages_fts MATCH ?`

	args := []any{query}
	if threadID != 0 {
		q += " AND m.thread_id = ?"
		args = append(args, threadID)
	}
	q += " ORDER BY rank LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(
			&r.Message.ID, &r.Message.ThreadID, &r.Message.Address,
			&r.Message.Body, &r.Message.Timestamp, &r.Message.Direction,
			&r.Message.Status, &r.Message.IsRead, &r.Message.ErrorCode,
			&r.Snippet,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
