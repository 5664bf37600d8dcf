package ledgerline

// Version is the SDK release version, reported in the User-Agent header of
// every request.
const Version = "0.4.1"

const userAgent = "ledgerline-go/" + Version
