/*
Package arbeitsdk is a client for the Arbeit staffing backend's
authentication endpoints.

# Audiences

The backend authenticates two unrelated populations through two endpoint
families. An SDKClient hands out one PortalClient per family:

	client := arbeitsdk.NewSDKClient("https://api.example.com")

	staff := client.Staff()         // /api/auth/*
	candidate := client.Candidate() // /api/candidate-portal/*

	resp, err := staff.Login(ctx, arbeitsdk.LoginRequest{Email: email, Password: pw})
	if err != nil {
		var apiErr *arbeitsdk.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			// wrong credentials
		}
	}

# Errors

Non-2xx responses are returned as *APIError. Failures to reach the backend at
all wrap ErrTransport. The SDK performs no retries and keeps no state between
calls; secrets passed to it are sent once and never retained.
*/
package arbeitsdk
