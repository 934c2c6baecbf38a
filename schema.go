package guardian

// Schema contains sql commands to setup the database to work for the guardian app.
const Schema = `
CREATE TABLE IF NOT EXISTS account_user (
	id VARCHAR(26) PRIMARY KEY,
	first_name VARCHAR(100) NOT NULL,
	last_name VARCHAR(100) NOT NULL,
	second_last_name VARCHAR(100) DEFAULT '',
	email VARCHAR(255) UNIQUE NOT NULL,
	phone VARCHAR(20) UNIQUE NULL,
	password VARCHAR(60) NULL,
	auth_method VARCHAR(20) NOT NULL,
	oauth_provider VARCHAR(50) NULL,
	credential_id BYTEA NULL,
	public_key BYTEA NULL,
	sign_count INT DEFAULT 0,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp
);
CREATE TABLE IF NOT EXISTS otp_code (
	id VARCHAR(26) PRIMARY KEY,
	user_id VARCHAR(26) REFERENCES account_user(id) NOT NULL,
	code_hash VARCHAR(60) NOT NULL,
	purpose VARCHAR(10) NOT NULL,
	status VARCHAR(10) DEFAULT 'Active',
	issued_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp,
	expires_at TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE TABLE IF NOT EXISTS refresh_token (
	id VARCHAR(26) PRIMARY KEY,
	user_id VARCHAR(26) REFERENCES account_user(id) NOT NULL,
	token_hash VARCHAR(60) NOT NULL,
	status VARCHAR(10) DEFAULT 'Active',
	issued_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp,
	expires_at TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE TABLE IF NOT EXISTS session (
	id VARCHAR(26) PRIMARY KEY,
	user_id VARCHAR(26) REFERENCES account_user(id) NOT NULL,
	token_hash VARCHAR(128) NOT NULL,
	ip_address VARCHAR(45) NULL,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp,
	closed_at TIMESTAMP WITH TIME ZONE NULL
);
`
