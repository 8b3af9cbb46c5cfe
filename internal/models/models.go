package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	ProfilePic   string    `json:"profilePic,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Categories is the closed set of product categories.
var Categories = []string{
	"Soft Drinks",
	"Energy Drinks",
	"Coffee",
	"Tea",
	"Smoothies",
	"Mocktails",
	"Water",
	"Sports Drinks",
	"Wine",
}

func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Nutrition holds the per-serving nutrition facts. All fields are required
// on product creation.
type Nutrition struct {
	Calories string `json:"calories"`
	Sugar    string `json:"sugar"`
	Caffeine string `json:"caffeine"`
	Serving  string `json:"serving"`
}

func (n Nutrition) Complete() bool {
	return n.Calories != "" && n.Sugar != "" && n.Caffeine != "" && n.Serving != ""
}

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image"`
	Nutrition   Nutrition       `json:"nutrition"`
	Rating      decimal.Decimal `json:"rating"`
	ReviewCount int             `json:"reviews"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type CartItem struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	ProductID  int64           `json:"product_id"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	// Joined product fields, populated on reads.
	ProductName  string          `json:"product_name,omitempty"`
	ProductPrice decimal.Decimal `json:"product_price,omitempty"`
	ProductImage string          `json:"product_image,omitempty"`
}

type WishlistItem struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	AddedAt   time.Time `json:"addedAt"`

	ProductName        string          `json:"product_name,omitempty"`
	ProductPrice       decimal.Decimal `json:"product_price,omitempty"`
	ProductImage       string          `json:"product_image,omitempty"`
	ProductDescription string          `json:"product_description,omitempty"`
	ProductCategory    string          `json:"product_category,omitempty"`
}

const (
	OrderStatusPending    = "Pending"
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

// OrderStatuses lists the valid statuses in lifecycle order.
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func ValidOrderStatus(status string) bool {
	for _, s := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type CustomerDetails struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`

	ProductName  string `json:"product_name,omitempty"`
	ProductImage string `json:"product_image,omitempty"`
}

// CategoryQuantity is one entry of the per-order category aggregate.
type CategoryQuantity struct {
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}

type Order struct {
	ID                 int64              `json:"id"`
	OrderNumber        string             `json:"order_number"`
	UserID             *int64             `json:"user_id"`
	CustomerDetails    CustomerDetails    `json:"customerDetails"`
	Items              []OrderItem        `json:"items"`
	CategoryQuantities []CategoryQuantity `json:"categoryQuantities"`
	TotalAmount        decimal.Decimal    `json:"totalAmount"`
	Status             string             `json:"status"`
	OrderDate          time.Time          `json:"orderDate"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`

	Username  string `json:"username,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}

const (
	ReviewTypeFeedback = "feedback"
	ReviewTypeQuestion = "question"

	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

type Review struct {
	ID          int64            `json:"id"`
	UserID      *int64           `json:"user_id"`
	Type        string           `json:"type"`
	Rating      *decimal.Decimal `json:"rating,omitempty"`
	Comment     string           `json:"comment"`
	Status      string           `json:"status"`
	AdminNote   string           `json:"adminNote,omitempty"`
	Response    string           `json:"response,omitempty"`
	ModeratedBy *int64           `json:"moderatedBy,omitempty"`
	ModeratedAt *time.Time       `json:"moderatedAt,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	Username   string `json:"username,omitempty"`
	UserEmail  string `json:"user_email,omitempty"`
	ProfilePic string `json:"profile_pic,omitempty"`
}
