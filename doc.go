package highlights

// This package defines common methods and operations for organizing a folder of trip artifacts (GPS tracks, photos, videos) into a chronological, location-aware travelogue and for producing the per-day GeoJSON documents consumed by a map viewer. Common operations include: Ingesting files and publishing travelogues.
