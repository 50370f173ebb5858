package testutil

// LegacySchema is the integer-keyed generation: users.user_id, dogs.dog_id,
// bookings.booking_id with suffixed owner/sitter columns.
var LegacySchema = []string{
	`CREATE TABLE users (
		user_id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		phone_number TEXT UNIQUE,
		full_name TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE sitters (
		sitter_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL UNIQUE REFERENCES users(user_id),
		self_introduction TEXT,
		total_earnings INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE dogs (
		dog_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(user_id),
		dog_name TEXT NOT NULL,
		breed TEXT,
		personality TEXT,
		profile_image_url TEXT,
		special_notes TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE bookings (
		booking_id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_user_id INTEGER NOT NULL REFERENCES users(user_id),
		sitter_user_id INTEGER NOT NULL REFERENCES users(user_id),
		dog_id INTEGER NOT NULL REFERENCES dogs(dog_id),
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		start_date TEXT,
		end_date TEXT,
		location TEXT,
		booking_status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE job_postings (
		job_id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id INTEGER NOT NULL REFERENCES users(user_id),
		dog_id INTEGER REFERENCES dogs(dog_id),
		title TEXT NOT NULL,
		description TEXT,
		location TEXT,
		start_date TEXT,
		end_date TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE sitter_postings (
		post_id INTEGER PRIMARY KEY AUTOINCREMENT,
		sitter_id INTEGER NOT NULL REFERENCES users(user_id),
		title TEXT NOT NULL,
		description TEXT,
		location TEXT,
		available_from TEXT,
		available_to TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// ModernSchema is the UUID-keyed generation: users.id, dogs.id (uuid),
// bookings.id (uuid) with unsuffixed owner/sitter columns and dogId.
var ModernSchema = []string{
	`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		phone TEXT UNIQUE,
		name TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE sitters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL UNIQUE REFERENCES users(id),
		self_introduction TEXT,
		total_earnings INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE dogs (
		id TEXT PRIMARY KEY,
		owner_id INTEGER NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		breed TEXT,
		personality TEXT,
		notes TEXT,
		photo_url TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE bookings (
		id TEXT PRIMARY KEY,
		owner_id INTEGER NOT NULL REFERENCES users(id),
		sitter_id INTEGER NOT NULL REFERENCES users(id),
		dogId TEXT NOT NULL REFERENCES dogs(id),
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		location TEXT,
		status TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE job_postings (
		job_id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id INTEGER NOT NULL REFERENCES users(id),
		dog_id TEXT REFERENCES dogs(id),
		title TEXT NOT NULL,
		description TEXT,
		location TEXT,
		start_date TEXT,
		end_date TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE sitter_postings (
		post_id INTEGER PRIMARY KEY AUTOINCREMENT,
		sitter_id INTEGER NOT NULL REFERENCES users(id),
		title TEXT NOT NULL,
		description TEXT,
		location TEXT,
		available_from TEXT,
		available_to TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// MixedSchema pairs a users table that only has the numeric id column with
// a bookings table that still expects owner_user_id / sitter_user_id.
var MixedSchema = []string{
	`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		phone_number TEXT UNIQUE,
		full_name TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE dogs (
		id TEXT PRIMARY KEY,
		owner_id INTEGER NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		breed TEXT,
		photo_url TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE bookings (
		id TEXT PRIMARY KEY,
		owner_user_id INTEGER NOT NULL REFERENCES users(id),
		sitter_user_id INTEGER NOT NULL REFERENCES users(id),
		dog_id TEXT NOT NULL REFERENCES dogs(id),
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		start_date TEXT,
		end_date TEXT,
		location TEXT,
		booking_status TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE sitter_postings (
		post_id INTEGER PRIMARY KEY AUTOINCREMENT,
		sitter_id INTEGER NOT NULL REFERENCES users(id),
		title TEXT NOT NULL,
		description TEXT,
		location TEXT,
		available_from TEXT,
		available_to TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// DualKeySchema carries both key columns on users and dogs, the state of a
// database halfway through migration.
var DualKeySchema = []string{
	`CREATE TABLE users (
		user_id INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name TEXT
	)`,
	`CREATE TABLE dogs (
		dog_id INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT UNIQUE,
		owner_id INTEGER NOT NULL,
		name TEXT NOT NULL
	)`,
}
