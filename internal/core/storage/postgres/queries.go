package postgres

// SQL queries over the documents table.
// Every document lives in one JSONB column; collections partition the table
// and seq records insertion order.

const (
	// queryInsertDocument appends one document and returns its sequence.
	queryInsertDocument = `
		INSERT INTO documents (collection, doc)
		VALUES ($1, $2::jsonb)
		RETURNING seq
	`

	// queryFindDocuments selects documents containing the match document.
	// An empty match document ('{}') contains nothing and matches everything.
	queryFindDocuments = `
		SELECT doc
		FROM documents
		WHERE collection = $1
		  AND doc @> $2::jsonb
		ORDER BY seq ASC
	`

	// queryAggregateDocuments groups matched documents by the projection of
	// the key paths ($3 names, $4 dotted paths). Buckets are ordered by the
	// first matching document, and each carries its documents' value and
	// identity sub-structures in insertion order.
	queryAggregateDocuments = `
		WITH matched AS (
			SELECT
				d.seq,
				d.doc,
				(
					SELECT COALESCE(jsonb_object_agg(k.name, d.doc #> string_to_array(k.path, '.')), '{}'::jsonb)
					FROM unnest($3::text[], $4::text[]) AS k(name, path)
				) AS bucket
			FROM documents d
			WHERE d.collection = $1
			  AND d.doc @> $2::jsonb
		)
		SELECT
			bucket,
			jsonb_agg(doc -> 'val' ORDER BY seq) AS vals,
			jsonb_agg(doc -> 'id' ORDER BY seq) AS ids
		FROM matched
		GROUP BY bucket
		ORDER BY min(seq) ASC
	`

	// queryDistinctValues lists the distinct values at a path in first-seen order.
	queryDistinctValues = `
		SELECT value
		FROM (
			SELECT doc #> $2::text[] AS value, min(seq) AS first_seq
			FROM documents
			WHERE collection = $1
			  AND doc #> $2::text[] IS NOT NULL
			GROUP BY 1
		) distinct_values
		ORDER BY first_seq ASC
	`

	// queryKeys lists the keys of one sub-structure across the first $3
	// documents. A NULL limit samples the whole collection.
	queryKeys = `
		SELECT DISTINCT key
		FROM (
			SELECT doc
			FROM documents
			WHERE collection = $1
			ORDER BY seq ASC
			LIMIT $3
		) sample,
		jsonb_object_keys(
			CASE WHEN jsonb_typeof(sample.doc -> $2) = 'object'
				THEN sample.doc -> $2
				ELSE '{}'::jsonb
			END
		) AS key
		ORDER BY key ASC
	`
)
