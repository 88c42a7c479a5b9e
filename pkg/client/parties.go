package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/estoque-app/estoque/pkg/domain"
)

// ListCustomers returns every customer.
func (c *Client) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	var customers []domain.Customer
	if err := c.get(ctx, "/customers", &customers); err != nil {
		return nil, fmt.Errorf("client.ListCustomers: %w", err)
	}
	return customers, nil
}

// CustomerByDocument looks a customer up by tax document.
func (c *Client) CustomerByDocument(ctx context.Context, document string) (*domain.Customer, error) {
	params := url.Values{}
	params.Set("document", document)

	var customer domain.Customer
	if err := c.get(ctx, "/customers/by-document?"+params.Encode(), &customer); err != nil {
		return nil, fmt.Errorf("client.CustomerByDocument: %w", err)
	}
	return &customer, nil
}

// CreateCustomer registers a customer.
func (c *Client) CreateCustomer(ctx context.Context, cust domain.Customer) (*domain.Customer, error) {
	var created domain.Customer
	if err := c.post(ctx, "/customers", cust, &created); err != nil {
		return nil, fmt.Errorf("client.CreateCustomer: %w", err)
	}
	return &created, nil
}

// ListUsers returns the accounts of the current company.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.get(ctx, "/users", &users); err != nil {
		return nil, fmt.Errorf("client.ListUsers: %w", err)
	}
	return users, nil
}

// GetCompany returns the company of the signed-in user.
func (c *Client) GetCompany(ctx context.Context) (*domain.Company, error) {
	var company domain.Company
	if err := c.get(ctx, "/company/me", &company); err != nil {
		return nil, fmt.Errorf("client.GetCompany: %w", err)
	}
	return &company, nil
}
