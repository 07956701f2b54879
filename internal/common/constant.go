package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// DataVersionInitial is the data_version stamped on freshly created
// encrypted records.
const DataVersionInitial = 1
