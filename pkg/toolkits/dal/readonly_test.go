package dal

import "testing"

func TestCheckReadOnly(t *testing.T) {
	t.Run("allows read queries", func(t *testing.T) {
		queries := []string{
			"SELECT * FROM users",
			"select name from orders",
			"  SELECT id FROM products WHERE active = true",
			"-- comment\nSELECT * FROM events",
			"/* block comment */ SELECT id FROM test",
			"SHOW TABLES",
			"show columns from users",
			"DESCRIBE users",
			"EXPLAIN SELECT * FROM users",
			"WITH recent AS (SELECT * FROM events) SELECT count(*) FROM recent",
		}
		for _, q := range queries {
			if err := checkReadOnly(q); err != nil {
				t.Errorf("read query should be allowed: %q, got error: %v", q, err)
			}
		}
	})

	t.Run("blocks write queries", func(t *testing.T) {
		queries := []string{
			"INSERT INTO users VALUES (1, 'test')",
			"insert into orders (id) values (1)",
			"  UPDATE users SET name = 'test'",
			"DELETE FROM users",
			"DROP TABLE users",
			"CREATE TABLE t (id int)",
			"ALTER TABLE users ADD COLUMN age int",
			"TRUNCATE TABLE logs",
			"GRANT SELECT ON users TO analyst",
			"REVOKE SELECT ON users FROM analyst",
			"MERGE INTO target USING src ON target.id = src.id",
			"CALL system.flush()",
			"-- comment\nINSERT INTO test VALUES (1)",
			"/* sneaky */ drop table users",
			"DELETE;",
		}
		for _, q := range queries {
			if err := checkReadOnly(q); err == nil {
				t.Errorf("write query should be blocked: %q", q)
			}
		}
	})

	t.Run("keyword must start the statement", func(t *testing.T) {
		queries := []string{
			"SELECT * FROM deleted_users",
			"SELECT 'DROP TABLE users' AS payload",
			"SELECT updated_at FROM orders",
		}
		for _, q := range queries {
			if err := checkReadOnly(q); err != nil {
				t.Errorf("query should be allowed: %q, got error: %v", q, err)
			}
		}
	})
}
