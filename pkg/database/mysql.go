package database

import (
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/tradeops/factory-message-service/environments"
	"github.com/tradeops/factory-message-service/pkg/logger"
)

func NewMySQLDB(cfg environments.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
	)

	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Infof("Connected to MySQL database")
	return db, nil
}

var schemas = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		role VARCHAR(40) NOT NULL,
		is_admin TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_users_role (role)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS suppliers (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		webhook_url VARCHAR(500) NOT NULL DEFAULT '',
		token VARCHAR(100) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'unconfigured',
		error_count INT NOT NULL DEFAULT 0,
		last_error TEXT,
		last_test_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS purchase_orders (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_no VARCHAR(50) NOT NULL,
		supplier_id BIGINT NOT NULL,
		status VARCHAR(30) NOT NULL DEFAULT 'draft',
		total_value DECIMAL(14,2) NOT NULL DEFAULT 0,
		currency VARCHAR(3) NOT NULL DEFAULT 'USD',
		delivery_date DATETIME,
		payment_terms VARCHAR(200),
		sales_order_no VARCHAR(50),
		confirmed_at DATETIME,
		production_started_at DATETIME,
		production_completed_at DATETIME,
		shipped_at DATETIME,
		qc_status VARCHAR(200),
		tracking_no VARCHAR(100),
		last_reply_at DATETIME,
		last_factory_message_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uk_purchase_orders_order_no (order_no),
		INDEX idx_purchase_orders_supplier (supplier_id),
		INDEX idx_purchase_orders_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS purchase_order_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_id BIGINT NOT NULL,
		product_name VARCHAR(200) NOT NULL,
		quantity INT NOT NULL DEFAULT 0,
		unit VARCHAR(20) NOT NULL DEFAULT '',
		unit_price DECIMAL(14,2) NOT NULL DEFAULT 0,
		INDEX idx_po_items_order (order_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS purchase_order_assignments (
		order_id BIGINT NOT NULL,
		user_id BIGINT NOT NULL,
		PRIMARY KEY (order_id, user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS messages (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		uid CHAR(36) NOT NULL,
		direction VARCHAR(10) NOT NULL,
		supplier_id BIGINT NOT NULL,
		order_id BIGINT,
		kind VARCHAR(50) NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		parsed_action VARCHAR(30),
		parsed_order_no VARCHAR(50),
		parsed_argument TEXT,
		from_user VARCHAR(100),
		retry_count INT NOT NULL DEFAULT 0,
		provider_response TEXT,
		provider_msg_id VARCHAR(100),
		note_id BIGINT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uk_messages_uid (uid),
		INDEX idx_messages_supplier (supplier_id),
		INDEX idx_messages_status (status),
		INDEX idx_messages_direction (direction),
		INDEX idx_messages_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS team_notes (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_id BIGINT NOT NULL,
		message_id BIGINT NOT NULL,
		author_id BIGINT NOT NULL,
		content TEXT NOT NULL,
		mentioned_users TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_team_notes_order (order_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		title VARCHAR(200) NOT NULL,
		body TEXT NOT NULL,
		link VARCHAR(300) NOT NULL DEFAULT '',
		read_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_notifications_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
}

func RunMigrations(db *sqlx.DB) error {
	for _, schema := range schemas {
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	logger.Infof("Database migrations completed")

	return nil
}

func SeedTestData(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM suppliers"); err != nil {
		return err
	}

	if count > 0 {
		logger.Infof("Database already has %d suppliers, skipping seed", count)
		return nil
	}

	users := []struct {
		name    string
		role    string
		isAdmin bool
	}{
		{"系统管理员", "purchasing", true},
		{"采购小张", "purchasing", false},
		{"跟单小李", "project_management", false},
		{"质检小王", "quality", false},
		{"物流小刘", "logistics", false},
		{"客服小陈", "customer_service", false},
		{"生产协调小周", "production", false},
		{"销售经理老赵", "sales_management", false},
	}
	for _, u := range users {
		if _, err := db.Exec(
			"INSERT INTO users (name, role, is_admin) VALUES (?, ?, ?)",
			u.name, u.role, u.isAdmin,
		); err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}
	}

	suppliers := []struct {
		name       string
		webhookURL string
		token      string
	}{
		{"东莞精诚服饰", "https://qyapi.weixin.qq.com/cgi-bin/webhook/send?key=demo-key-1", "tok-dongguan-001"},
		{"宁波恒达纺织", "https://qyapi.weixin.qq.com/cgi-bin/webhook/send?key=demo-key-2", "tok-ningbo-002"},
		{"深圳联创电子", "", "tok-shenzhen-003"},
	}
	for _, s := range suppliers {
		if _, err := db.Exec(
			"INSERT INTO suppliers (name, webhook_url, token) VALUES (?, ?, ?)",
			s.name, s.webhookURL, s.token,
		); err != nil {
			return fmt.Errorf("failed to seed suppliers: %w", err)
		}
	}

	orders := []struct {
		orderNo    string
		supplierID int64
		status     string
		total      string
		currency   string
	}{
		{"PO-2024-001", 1, "pending", "12000.00", "USD"},
		{"PO-2024-002", 1, "in_production", "8600.00", "USD"},
		{"PO-2024-003", 2, "confirmed", "56000.00", "CNY"},
	}
	for _, o := range orders {
		res, err := db.Exec(
			`INSERT INTO purchase_orders (order_no, supplier_id, status, total_value, currency, delivery_date)
			 VALUES (?, ?, ?, ?, ?, DATE_ADD(NOW(), INTERVAL 30 DAY))`,
			o.orderNo, o.supplierID, o.status, o.total, o.currency,
		)
		if err != nil {
			return fmt.Errorf("failed to seed purchase orders: %w", err)
		}
		orderID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get order id: %w", err)
		}

		// Assign the whole demo team to each order.
		for userID := int64(2); userID <= 8; userID++ {
			if _, err := db.Exec(
				"INSERT INTO purchase_order_assignments (order_id, user_id) VALUES (?, ?)",
				orderID, userID,
			); err != nil {
				return fmt.Errorf("failed to seed assignments: %w", err)
			}
		}

		if _, err := db.Exec(
			`INSERT INTO purchase_order_items (order_id, product_name, quantity, unit, unit_price)
			 VALUES (?, '连帽卫衣', 500, '件', 24.00), (?, '棒球帽', 1000, '顶', 6.00)`,
			orderID, orderID,
		); err != nil {
			return fmt.Errorf("failed to seed order items: %w", err)
		}
	}

	logger.Infof("Seeded %d users, %d suppliers, %d purchase orders", len(users), len(suppliers), len(orders))
	return nil
}
